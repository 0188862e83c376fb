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
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/corefmt"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/spec"
)

// Table 封裝一張「可對外開獎」的桌台。
//
//   - 對外：提供 Spin / SpinBatch / StartRound / Replay。
//   - 對內：持有 RNG（Core）與桌規，規則判定全部委派給 sdk/roulette 與 sdk/blackjack。
//
// 並發語意：Core 不是併發安全的，Table 以 mu 保護；同一張 Table 同時只會開一次獎。
// 需要併發時由 TablePool 建立多張 Table 分散使用。
type Table struct {
	tableName string             // 桌名（主要用於觀測/日誌）
	ts        *spec.TableSetting // 桌規（只讀）
	core      *core.Core         // RNG 核心
	mu        sync.Mutex         // 保護 core 狀態
	initseed  int64              // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

// CoreState 開獎前後的 Core 快照（Base64URL）。
//
// 以 Start 還原 Core 後再開一次獎，一定得到同一個號碼；這是審計與回放的依據。
type CoreState struct {
	Start string `json:"start_core_snap"`
	After string `json:"after_core_snap"`
}

// SpinOutcome 單注結算 + 快照
type SpinOutcome struct {
	roulette.Settlement
	State CoreState `json:"state"`
}

// BatchOutcome 多注結算 + 快照（整批共用一次開獎，所以只有一組快照）
type BatchOutcome struct {
	roulette.BatchSettlement
	State CoreState `json:"state"`
}

func newTableWithSeed(ts *spec.TableSetting, cf core.PRNGFactory, seed int64) *Table {
	return &Table{
		tableName: ts.TableName,
		ts:        ts,
		core:      core.New(cf.New(seed)),
		initseed:  seed,
	}
}

// Name 桌名
func (t *Table) Name() string { return t.tableName }

// Seed 出生 seed
func (t *Table) Seed() int64 { return t.initseed }

// Spin 單注開獎。
//
// 桌規檢查（最低下注）與目錄/餘額檢查都在開獎前完成；任何一項失敗都不會推進 Core。
func (t *Table) Spin(w roulette.Wager, balance decimal.Decimal) (SpinOutcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkStake(w); err != nil {
		return SpinOutcome{}, err
	}
	start, err := t.core.Snapshot()
	if err != nil {
		return SpinOutcome{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	s, err := roulette.ResolveSingle(t.core, w, balance)
	if err != nil {
		return SpinOutcome{}, err
	}
	after, err := t.core.Snapshot()
	if err != nil {
		return SpinOutcome{}, errs.NewFatal("after snapshot error " + err.Error())
	}
	return SpinOutcome{Settlement: s, State: newCoreState(start, after)}, nil
}

// SpinBatch 多注開獎：整批先過桌規（注數上限、每注最低下注），再交給 ResolveBatch 開一次獎。
func (t *Table) SpinBatch(ws []roulette.Wager, balance decimal.Decimal) (BatchOutcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(ws) > t.ts.Roulette.MaxBatch {
		return BatchOutcome{}, errs.InvalidBet("batch of %d wagers exceeds max %d", len(ws), t.ts.Roulette.MaxBatch)
	}
	for _, w := range ws {
		if err := t.checkStake(w); err != nil {
			return BatchOutcome{}, err
		}
	}
	start, err := t.core.Snapshot()
	if err != nil {
		return BatchOutcome{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	bs, err := roulette.ResolveBatch(t.core, ws, balance)
	if err != nil {
		return BatchOutcome{}, err
	}
	after, err := t.core.Snapshot()
	if err != nil {
		return BatchOutcome{}, errs.NewFatal("after snapshot error " + err.Error())
	}
	return BatchOutcome{BatchSettlement: bs, State: newCoreState(start, after)}, nil
}

// StartRound 洗一副新牌並發牌，莊家停牌點數依桌規。
func (t *Table) StartRound() (blackjack.Round, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return blackjack.StartRound(t.core, blackjack.StandOn(t.ts.Blackjack.DealerStandsOn))
}

// Replay 以開獎前快照重開一次獎並結算 w，Core 會還原回呼叫前的狀態。
//
// 快照內容來自外部（資料庫/請求），格式錯誤屬於請求錯誤（Warn），不淘汰桌台。
func (t *Table) Replay(startB64U string, w roulette.Wager) (roulette.Settlement, error) {
	if err := roulette.ValidateWager(w); err != nil {
		return roulette.Settlement{}, err
	}
	draw, err := t.ReplayDraw(startB64U)
	if err != nil {
		return roulette.Settlement{}, err
	}
	return roulette.Settle(w, draw), nil
}

// ReplayDraw 以開獎前快照重開一次獎，只回傳號碼。
func (t *Table) ReplayDraw(startB64U string) (int, error) {
	snap, err := corefmt.DecodeBase64URL(startB64U)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rem, err := t.core.Snapshot()
	if err != nil {
		return 0, errs.NewFatal("before snapshot error " + err.Error())
	}
	if err := t.core.Restore(snap); err != nil {
		if e := t.core.Restore(rem); e != nil {
			return 0, errs.NewFatal("fall back err " + e.Error())
		}
		return 0, errs.NewWarn("restore core err " + err.Error())
	}
	draw := t.core.Pocket()
	if err := t.core.Restore(rem); err != nil {
		return 0, errs.NewFatal("restore core back err " + err.Error())
	}
	return draw, nil
}

// SnapshotCore 取得 Core 狀態暫存
func (t *Table) SnapshotCore() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態暫存
func (t *Table) RestoreCore(src []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.core.Restore(src)
}

func (t *Table) checkStake(w roulette.Wager) error {
	if floor := t.ts.MinStake(); w.Stake.LessThan(floor) {
		return errs.InvalidBet("stake %s below table minimum %s", w.Stake, floor)
	}
	return nil
}

func newCoreState(start, after []byte) CoreState {
	return CoreState{
		Start: corefmt.EncodeBase64URL(start),
		After: corefmt.EncodeBase64URL(after),
	}
}

// ============================================================
// ** 模擬用：跳過所有檢查、不加鎖 **
// ============================================================

// playInternal 直接跑一局並回傳返還（含本金，輸為 0）；僅供模擬器使用。
func (t *Table) playInternal(p Play) (int64, error) {
	switch p.Game {
	case GameRoulette:
		n := t.core.Pocket()
		if roulette.Wins(p.Bet, n) {
			return p.Stake * roulette.Multiplier(p.Bet), nil
		}
		return 0, nil
	case GameBlackjack:
		r, err := blackjack.StartRound(t.core, blackjack.StandOn(t.ts.Blackjack.DealerStandsOn))
		if err != nil {
			return 0, err
		}
		for !r.Done() && r.PlayerScore() < t.ts.Blackjack.SimHitBelow {
			if r, err = blackjack.ApplyAction(r, blackjack.Hit); err != nil {
				return 0, err
			}
		}
		if !r.Done() {
			if r, err = blackjack.ApplyAction(r, blackjack.Stand); err != nil {
				return 0, err
			}
		}
		switch r.Outcome {
		case blackjack.PlayerWin:
			return 2 * p.Stake, nil
		case blackjack.Push:
			return p.Stake, nil
		}
		return 0, nil
	}
	return 0, errs.Warnf("unknown game %q", p.Game)
}
