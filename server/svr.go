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


package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/server/api"
	"github.com/zintix-labs/tablelab/server/app"
	"github.com/zintix-labs/tablelab/server/netsvr"
	"github.com/zintix-labs/tablelab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger、House）。
//  2. 建立監聽 addr 的 HTTP server（netsvr）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 把 server 與 hooks 交給 app.Run()，收到訊號後一併關閉。
//
// Run 不讀檔也不讀環境變數；所有依賴都由呼叫端透過 SvrCfg 注入。
// hooks 依註冊順序關閉，通常是桌台、資料庫、最後才是 logger。
func Run(sCfg *svrcfg.SvrCfg, addr string, hooks ...app.Component) {
	RunWithSvr(sCfg, netsvr.NewChiServer(addr), hooks...)
}

// RunWithSvr 與 Run 相同，但允許呼叫端注入自訂的 NetSvr
// （例如自己包裝的 adapter、額外的 listener 或 TLS 設定）。
//
//   - svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
//   - 這一層只負責「註冊 routes + 啟動 app.Run()」，不接管整個系統的組裝方式。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, hooks ...app.Component) {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	// 註冊 Api
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	// 運行
	a := app.NewWith(svr)
	for _, h := range hooks {
		a.Register(h)
	}
	sCfg.Log.Info("[tablelab] listening", slog.String("addr", addrOf(svr)))
	if err := a.Run(); err != nil {
		// hooks 可能已關閉 logger
		fmt.Fprintln(os.Stderr, "app stopped:", err)
	}
}

func addrOf(svr netsvr.NetSvr) string {
	if s, ok := svr.(interface{ Address() string }); ok {
		return s.Address()
	}
	return ""
}
