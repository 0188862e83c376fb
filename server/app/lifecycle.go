// Package app 定義應用程式根目錄用以管理長期運行元件的最小生命週期抽象。
package app

import (
	"context"
	"sync"
)

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
// - Run() 應該是阻塞呼叫，直到元件停止為止（正常或錯誤）。
// - Shutdown(ctx) 用於要求優雅關閉；實作方應該尊重 ctx deadline/cancel。
// 典型實例：HTTP Server、Background Worker、Message Consumer 等。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Hook 把一段關閉動作包成 Component：Run 阻塞到 Shutdown 被呼叫為止。
// 用於把非 server 的資源（桌台、資料庫、非同步 logger）交給 App 一起關閉。
type Hook struct {
	fn   func(ctx context.Context) error
	done chan struct{}
	once sync.Once
}

// OnShutdown 建立 Hook；fn 只會被呼叫一次。
func OnShutdown(fn func(ctx context.Context) error) *Hook {
	return &Hook{fn: fn, done: make(chan struct{})}
}

func (h *Hook) Run() error {
	<-h.done
	return nil
}

func (h *Hook) Shutdown(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		close(h.done)
		if h.fn != nil {
			err = h.fn(ctx)
		}
	})
	return err
}
