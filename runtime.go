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
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/spec"
)

// Runtime 對外服務的入口：檢查 ctx 與關閉狀態後，把需要亂數的操作交給 TablePool。
//
// Act（hit/stand）不需要亂數，牌局狀態由呼叫端保存，直接交給 blackjack.ApplyAction。
type Runtime struct {
	lab  *Lab
	pool *TablePool

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

func newRuntime(lab *Lab, pool *TablePool) *Runtime {
	rt := &Runtime{lab: lab, pool: pool, done: make(chan struct{})}
	rt.reason.Store("")
	return rt
}

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.WrapWarn(ctx.Err(), "table runtime canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("table runtime closed: " + rt.ClosedReason())
	default:
	}
	return nil
}

// Spin 單注開獎
func (rt *Runtime) Spin(ctx context.Context, w roulette.Wager, balance decimal.Decimal) (SpinOutcome, error) {
	if err := rt.check(ctx); err != nil {
		return SpinOutcome{}, err
	}
	var out SpinOutcome
	err := rt.pool.Do(ctx, func(t *Table) (err error) {
		out, err = t.Spin(w, balance)
		return err
	})
	return out, err
}

// SpinBatch 多注共用一次開獎
func (rt *Runtime) SpinBatch(ctx context.Context, ws []roulette.Wager, balance decimal.Decimal) (BatchOutcome, error) {
	if err := rt.check(ctx); err != nil {
		return BatchOutcome{}, err
	}
	var out BatchOutcome
	err := rt.pool.Do(ctx, func(t *Table) (err error) {
		out, err = t.SpinBatch(ws, balance)
		return err
	})
	return out, err
}

// StartRound 開一局新的 21 點
func (rt *Runtime) StartRound(ctx context.Context) (blackjack.Round, error) {
	if err := rt.check(ctx); err != nil {
		return blackjack.Round{}, err
	}
	var out blackjack.Round
	err := rt.pool.Do(ctx, func(t *Table) (err error) {
		out, err = t.StartRound()
		return err
	})
	return out, err
}

// Act 對進行中的牌局套用玩家動作。
func (rt *Runtime) Act(ctx context.Context, r blackjack.Round, a blackjack.Action) (blackjack.Round, error) {
	if err := rt.check(ctx); err != nil {
		return blackjack.Round{}, err
	}
	return blackjack.ApplyAction(r, a)
}

// Replay 以開獎前快照重開一次獎並結算 w（審計用）。
func (rt *Runtime) Replay(ctx context.Context, startB64U string, w roulette.Wager) (roulette.Settlement, error) {
	if err := rt.check(ctx); err != nil {
		return roulette.Settlement{}, err
	}
	var out roulette.Settlement
	err := rt.pool.Do(ctx, func(t *Table) (err error) {
		out, err = t.Replay(startB64U, w)
		return err
	})
	return out, err
}

// Setting 回傳桌規複本
func (rt *Runtime) Setting() spec.TableSetting {
	return rt.lab.Setting()
}

// Metrics 桌台池觀測快照
func (rt *Runtime) Metrics() TablePoolMetrics {
	return rt.pool.Metrics()
}

// Close 進入關閉狀態，可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.pool.closeWithReason(reason)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
