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

package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/server/httperr"
	"github.com/zintix-labs/tablelab/server/netsvr"
	"github.com/zintix-labs/tablelab/server/svrcfg"
)

// Handler 持有 v1 API 需要的服務。
type Handler struct {
	house   *house.House
	lab     *tablelab.Lab
	log     *slog.Logger
	timeout time.Duration
}

func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.House == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("house and lab are required")
	}
	return &Handler{
		house:   sCfg.House,
		lab:     sCfg.Lab,
		log:     sCfg.Log,
		timeout: sCfg.ReqTimeout,
	}, nil
}

// Routes 掛上 v1 路由
func (h *Handler) Routes(r netsvr.NetRouter) {
	r.Post("/accounts", h.Register)
	r.Get("/accounts/{id}", h.Account)
	r.Get("/accounts/{id}/ledger", h.Ledger)

	r.Post("/accounts/{id}/roulette/spin", h.Spin)
	r.Post("/accounts/{id}/roulette/spin_multi", h.SpinMulti)
	r.Get("/accounts/{id}/roulette/history", h.History)
	r.Get("/roulette/spins/{spin}/verify", h.Verify)

	r.Get("/accounts/{id}/blackjack", h.CurrentRound)
	r.Post("/accounts/{id}/blackjack/start", h.StartBlackjack)
	r.Post("/accounts/{id}/blackjack/{action}", h.Act)

	r.Get("/table", h.Table)

	r.Get("/sim/roulette", h.SimRoulette)
	r.Post("/sim/roulette", h.SimRoulette)
	r.Get("/sim/blackjack", h.SimBlackjack)
	r.Post("/sim/blackjack", h.SimBlackjack)
	r.Post("/sim/players/{game}", h.SimPlayers)
	r.Post("/sim/bycfg", h.SimByCfg)
}

func (h *Handler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(netsvr.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.Warnf("invalid %s %q", key, raw)
	}
	return id, nil
}
