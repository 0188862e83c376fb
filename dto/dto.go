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

// Package dto 定義 HTTP 請求/回應的序列化結構。
//
// 回應只輸出對外需要的欄位：牌堆與 Core 快照這類內部狀態不對外。
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/corefmt"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/ledger"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/store"
)

type AccountView struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewAccountView(a store.Account) AccountView {
	return AccountView{ID: a.ID, Email: a.Email, Name: a.Name, Balance: a.Balance, CreatedAt: a.CreatedAt}
}

// SpinView 一筆輪盤稽核紀錄
type SpinView struct {
	ID           uuid.UUID       `json:"id"`
	SpinID       uuid.UUID       `json:"spin_id"`
	Bet          string          `json:"bet"`
	Amount       decimal.Decimal `json:"amount"`
	Result       int             `json:"result"`
	Color        string          `json:"color"`
	Win          bool            `json:"win"`
	Payout       decimal.Decimal `json:"payout"`
	Delta        decimal.Decimal `json:"delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewSpinView(r store.SpinRecord) SpinView {
	return SpinView{
		ID:           r.ID,
		SpinID:       r.SpinID,
		Bet:          r.Bet,
		Amount:       r.Amount,
		Result:       r.Result,
		Color:        roulette.ColorOf(r.Result).String(),
		Win:          r.Won,
		Payout:       r.Payout,
		Delta:        r.Delta,
		BalanceAfter: r.BalanceAfter,
		CreatedAt:    r.CreatedAt,
	}
}

func NewSpinViews(rs []store.SpinRecord) []SpinView {
	out := make([]SpinView, len(rs))
	for i, r := range rs {
		out[i] = NewSpinView(r)
	}
	return out
}

// SpinResponse 單注輪盤回應
type SpinResponse struct {
	SpinView
	Balance decimal.Decimal `json:"balance"`
}

func NewSpinResponse(res house.SpinResult) SpinResponse {
	return SpinResponse{SpinView: NewSpinView(res.Spin), Balance: res.Balance}
}

// MultiSpinResponse 多注輪盤回應，Results 與請求順序一致。
type MultiSpinResponse struct {
	SpinID     uuid.UUID       `json:"spin_id"`
	Result     int             `json:"result"`
	Color      string          `json:"color"`
	Results    []SpinView      `json:"results"`
	TotalStake decimal.Decimal `json:"total_stake"`
	TotalDelta decimal.Decimal `json:"total_delta"`
	Balance    decimal.Decimal `json:"balance"`
}

func NewMultiSpinResponse(res house.MultiSpinResult) MultiSpinResponse {
	return MultiSpinResponse{
		SpinID:     res.SpinID,
		Result:     res.Result,
		Color:      roulette.ColorOf(res.Result).String(),
		Results:    NewSpinViews(res.Spins),
		TotalStake: res.TotalStake,
		TotalDelta: res.TotalDelta,
		Balance:    res.Balance,
	}
}

// VerifyResponse 稽核重放結果
//
// StartSnapshot 為開獎前的 PRNG 狀態（hex），可在離線環境以同一份桌規重放。
type VerifyResponse struct {
	Spin          SpinView `json:"spin"`
	StartSnapshot string   `json:"start_snapshot"`
	Replayed      int      `json:"replayed_result"`
	Match         bool     `json:"match"`
}

func NewVerifyResponse(v house.Verification) VerifyResponse {
	return VerifyResponse{
		Spin:          NewSpinView(v.Spin),
		StartSnapshot: corefmt.EncodeHex(v.Spin.StartSnap),
		Replayed:      v.Replayed.Draw,
		Match:         v.Match,
	}
}

// RoundView 21 點牌局（不含剩餘牌堆）
type RoundView struct {
	ID          uuid.UUID             `json:"id"`
	Status      blackjack.Status      `json:"status"`
	Outcome     blackjack.Outcome     `json:"outcome,omitempty"`
	Player      []string              `json:"player"`
	PlayerTotal int                   `json:"player_total"`
	Dealer      []string              `json:"dealer"`
	DealerTotal int                   `json:"dealer_total"`
	DeckLeft    int                   `json:"deck_left"`
	Settlement  *blackjack.Settlement `json:"settlement,omitempty"`
	Balance     decimal.Decimal       `json:"balance"`
}

func NewRoundView(res house.RoundResult) RoundView {
	r := res.Round
	return RoundView{
		ID:          r.ID,
		Status:      r.Status(),
		Outcome:     r.Outcome,
		Player:      r.Player.Strings(),
		PlayerTotal: r.PlayerScore(),
		Dealer:      r.Dealer.Strings(),
		DealerTotal: r.DealerScore(),
		DeckLeft:    len(r.Deck),
		Settlement:  res.Settlement,
		Balance:     res.Balance,
	}
}

// LedgerView 一筆帳本分錄
type LedgerView struct {
	ID        uuid.UUID       `json:"id"`
	Source    ledger.Source   `json:"source"`
	Ref       string          `json:"ref,omitempty"`
	Delta     decimal.Decimal `json:"delta"`
	Before    decimal.Decimal `json:"balance_before"`
	After     decimal.Decimal `json:"balance_after"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewLedgerViews(rs []store.LedgerRecord) []LedgerView {
	out := make([]LedgerView, len(rs))
	for i, r := range rs {
		out[i] = LedgerView{
			ID:        r.ID,
			Source:    r.Source,
			Ref:       r.Ref,
			Delta:     r.Delta,
			Before:    r.Before,
			After:     r.After,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

// ErrorResponse 錯誤回應
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
