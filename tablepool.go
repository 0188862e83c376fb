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

package tablelab

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/spec"
)

// TablePool 管理同一份桌規下的所有桌台實例。
// 它透過兩個通道管理桌台生命週期：
//  1. pool：健康且可用的桌台，供 Do() 借出 / 歸還。
//  2. broken：在運作過程中發生 fatal error 或 panic 的壞桌台，送往此通道以便後續檢查或丟棄。
//
// 壞桌台送往 broken 後會立即補上一張新桌台（seed 由 seedMaker 派生）以維持容量。
type TablePool struct {
	tableName     string
	ts            *spec.TableSetting
	cf            core.PRNGFactory
	initSeed      int64
	seedMaker     *seedMaker
	pool          chan *Table   // 可用桌台
	broken        chan *Table   // 壞桌台
	done          chan struct{} // 關閉訊號：關閉後不再允許借桌/歸還/補桌
	closeOnce     sync.Once
	poolsize      int
	rebuild       atomic.Int32 // 補桌次數
	inflight      atomic.Int32 // 使用中
	panics        atomic.Int32 // panic 次數
	fatals        atomic.Int32 // fatal 次數（桌台狀態不可信）
	closeReason   atomic.Value // string: 關閉原因
	closeInflight atomic.Int32 // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32 // 關閉當下 pool 可用數量（快照）
	closeBroken   atomic.Int32 // 關閉當下 broken backlog（快照）
}

// brokenCap broken 通道容量；滿了代表連續故障，整個池進入關閉狀態。
const brokenCap = 100

func newTablePool(n int, ts *spec.TableSetting, cf core.PRNGFactory, seed int64) (*TablePool, error) {
	if ts == nil || cf == nil {
		return nil, errs.NewFatal("table pool requires setting and core factory")
	}
	n = max(1, n)
	p := &TablePool{
		tableName: ts.TableName,
		ts:        ts,
		cf:        cf,
		initSeed:  seed,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *Table, n),
		broken:    make(chan *Table, brokenCap),
		done:      make(chan struct{}),
		poolsize:  n,
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		p.pool <- newTableWithSeed(ts, cf, p.seedMaker.next())
	}
	return p, nil
}

// Close 進入關閉狀態，之後所有 Do() 直接回 error。
func (p *TablePool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *TablePool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *TablePool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 只有錯誤本身宣告 Fatal（例如 DeckExhausted、快照失敗）才淘汰桌台；
// 下注/餘額/牌局狀態這類請求錯誤都是 Warn，桌台仍然健康。
func isFatalErr(err error) bool {
	return err != nil && errs.Level(err) == errs.Fatal
}

// Do 借一張桌台執行 fn，結束後依結果歸還或淘汰。
//
// fn 回傳的 err 會原樣回傳；fn panic 時轉成 Fatal error。
func (p *TablePool) Do(ctx context.Context, fn func(t *Table) error) (err error) {
	var t *Table
	select {
	case <-p.done:
		return errs.NewFatal("table pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return errs.WrapWarn(ctx.Err(), "borrow table canceled/timeout")
	case t = <-p.pool:
		p.inflight.Add(1)
	}

	if t == nil {
		return errs.NewFatal("table pool got nil table")
	}

	var isPanic bool
	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("table %s panic : %v", t.tableName, r))
		}

		if p.Closed() {
			return
		}

		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- t:
			default:
				p.closeWithReason("overwhelmed_by_failures")
				return
			}

			fresh := newTableWithSeed(p.ts, p.cf, p.seedMaker.next())
			p.rebuild.Add(1)
			select {
			case <-p.done:
			case p.pool <- fresh:
			}
			return
		}

		select {
		case <-p.done:
		case p.pool <- t:
		}
	}()

	err = fn(t)
	return err
}

func (p *TablePool) PoolSize() int { return p.poolsize }

func (p *TablePool) Available() int { return len(p.pool) }

func (p *TablePool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// TablePoolMetrics 拉取式（pull）觀測快照。
//
// Available/BrokenBacklog 來自 len(chan)，在高併發下是近似值。
// Close* 欄位只在 Close 時寫入一次，-1 表示尚未關閉。
type TablePoolMetrics struct {
	TableName     string `json:"table_name"`
	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`
	CloseInflight int    `json:"close_inflight"`
	CloseAvail    int    `json:"close_avail"`
	CloseBroken   int    `json:"close_broken"`
}

// Metrics 回傳觀測快照；上層可用於 log 或 /health。
func (p *TablePool) Metrics() TablePoolMetrics {
	return TablePoolMetrics{
		TableName:     p.tableName,
		PoolSize:      p.poolsize,
		Available:     len(p.pool),
		Inflight:      int(p.inflight.Load()),
		BrokenBacklog: len(p.broken),
		Rebuild:       int(p.rebuild.Load()),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
		CloseAvail:    int(p.closeAvail.Load()),
		CloseBroken:   int(p.closeBroken.Load()),
	}
}
