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

package roulette

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
)

// Wager 一次下注。建立後只會被結算一次。
type Wager struct {
	Bettor string          `json:"bettor,omitempty"`
	Bet    Bet             `json:"bet"`
	Stake  decimal.Decimal `json:"stake"`
}

// Settlement 一筆下注對一次開獎的結算結果。
//
// Delta = Payout - Stake（贏）或 -Stake（輸）。
type Settlement struct {
	Wager  Wager           `json:"wager"`
	Draw   int             `json:"draw"`
	Won    bool            `json:"won"`
	Payout decimal.Decimal `json:"payout"`
	Delta  decimal.Decimal `json:"delta"`
}

// BatchSettlement 多注共用同一次開獎的結算結果，Settlements 順序與輸入順序一致。
type BatchSettlement struct {
	Draw        int             `json:"draw"`
	Settlements []Settlement    `json:"settlements"`
	TotalStake  decimal.Decimal `json:"total_stake"`
	TotalDelta  decimal.Decimal `json:"total_delta"`
}

// Settle 以指定開獎號碼結算一筆下注，不做任何驗證，也不取用亂數。
// 回放與 ResolveSingle/ResolveBatch 共用同一份賠付邏輯。
func Settle(w Wager, draw int) Settlement {
	s := Settlement{Wager: w, Draw: draw, Payout: decimal.Zero, Delta: w.Stake.Neg()}
	if Wins(w.Bet, draw) {
		s.Won = true
		s.Payout = w.Stake.Mul(decimal.NewFromInt(Multiplier(w.Bet)))
		s.Delta = s.Payout.Sub(w.Stake)
	}
	return s
}

// ValidateWager 檢查下注是否在目錄內且金額非負。
func ValidateWager(w Wager) error {
	if !IsValid(w.Bet) {
		return errs.InvalidBet("bet=%s", w.Bet)
	}
	if w.Stake.IsNegative() {
		return errs.InvalidBet("negative stake %s", w.Stake)
	}
	return nil
}

// ResolveSingle 結算單注：驗證下注、驗證餘額，全部通過後才開獎一次。
//
// 驗證失敗時不會呼叫 src，也沒有任何狀態被改動。
func ResolveSingle(src core.OutcomeSource, w Wager, balance decimal.Decimal) (Settlement, error) {
	if err := ValidateWager(w); err != nil {
		return Settlement{}, err
	}
	if balance.LessThan(w.Stake) {
		return Settlement{}, errs.InsufficientFunds("stake=%s balance=%s", w.Stake, balance)
	}
	return Settle(w, src.Pocket()), nil
}

// ResolveBatch 結算多注：所有下注共用同一次開獎。
//
// 先驗證每一注（遇到第一個不合法的即整批拒絕），再驗證總下注不超過餘額，
// 最後才開獎一次，並依輸入順序逐注結算。
func ResolveBatch(src core.OutcomeSource, wagers []Wager, balance decimal.Decimal) (BatchSettlement, error) {
	if len(wagers) == 0 {
		return BatchSettlement{}, errs.InvalidBet("empty batch")
	}
	total := decimal.Zero
	for i, w := range wagers {
		if err := ValidateWager(w); err != nil {
			return BatchSettlement{}, errs.InvalidBet("wager[%d]: bet=%s stake=%s", i, w.Bet, w.Stake)
		}
		total = total.Add(w.Stake)
	}
	if balance.LessThan(total) {
		return BatchSettlement{}, errs.InsufficientFunds("total stake=%s balance=%s", total, balance)
	}
	return SettleBatch(wagers, src.Pocket()), nil
}

// SettleBatch 以指定開獎號碼結算整批下注，不做驗證。
func SettleBatch(wagers []Wager, draw int) BatchSettlement {
	out := BatchSettlement{
		Draw:        draw,
		Settlements: make([]Settlement, 0, len(wagers)),
		TotalStake:  decimal.Zero,
		TotalDelta:  decimal.Zero,
	}
	for _, w := range wagers {
		s := Settle(w, draw)
		out.Settlements = append(out.Settlements, s)
		out.TotalStake = out.TotalStake.Add(w.Stake)
		out.TotalDelta = out.TotalDelta.Add(s.Delta)
	}
	return out
}

// Deltas 依輸入順序回傳每一注的餘額變動，方便交給 ledger 逐筆套用。
func (b BatchSettlement) Deltas() []decimal.Decimal {
	out := make([]decimal.Decimal, len(b.Settlements))
	for i, s := range b.Settlements {
		out[i] = s.Delta
	}
	return out
}
