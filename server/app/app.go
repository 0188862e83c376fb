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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 優雅關閉的總時限
const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，並在收到 OS 信號或任一 Component 結束時依註冊順序關閉全部元件。
type App struct {
	comps   []Component
	timeout time.Duration
	signals []os.Signal
}

// New 建立一個新的 App 實例。
func New() *App {
	return &App{timeout: DefaultShutdownTimeout, signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM}}
}

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

// Register 將一個 Component 註冊到 App 中；關閉順序與註冊順序相同。
func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// SetShutdownTimeout 調整關閉時限，<=0 時維持預設。
func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

// Run 以 goroutine 啟動所有 Component 並阻塞。
//   - 收到 SIGINT/SIGTERM：關閉全部元件，回傳關閉過程的錯誤（正常為 nil）。
//   - 任一 Component.Run 返回：關閉全部元件，回傳該錯誤與關閉錯誤的合併。
func (a *App) Run() error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, a.signals...)
	defer signal.Stop(quit)

	select {
	case <-quit:
		return a.shutdown()
	case err := <-errCh:
		return errors.Join(err, a.shutdown())
	}
}

// shutdown 在時限內依序呼叫 Shutdown；單一元件失敗不影響後面的元件。
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var errs []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
