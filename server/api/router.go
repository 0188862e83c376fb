// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	v1 "github.com/zintix-labs/tablelab/server/api/v1"
	"github.com/zintix-labs/tablelab/server/netsvr"
	"github.com/zintix-labs/tablelab/server/netsvr/middleware"
	"github.com/zintix-labs/tablelab/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log)       // 1. 註冊 middleware
	svr.Get("/health", healthHandler(sCfg)) // 2. 健康檢查
	return registerV1API(svr, sCfg)         // 3. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 桌台池關閉時回 503，讓外部負載平衡器摘除本節點。
func healthHandler(sCfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status, code := "ok", http.StatusOK
		if rt := sCfg.House.Runtime(); rt.Closed() {
			status, code = "closed: "+rt.ClosedReason(), http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", h.Routes)
	return nil
}
