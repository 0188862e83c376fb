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

package blackjack

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
)

// DefaultStandOn 莊家停牌點數（點數小於此值就繼續抽）
const DefaultStandOn = 17

// Phase 牌局階段。
//
// 發牌（Dealing）與莊家回合（DealerTurn）都是進入即完成的動作，不會停留，
// 所以一個存活的 Round 只會處於 PlayerTurn 或 Resolved。
type Phase string

const (
	Dealing    Phase = "dealing"
	PlayerTurn Phase = "player_turn"
	DealerTurn Phase = "dealer_turn"
	Resolved   Phase = "resolved"
)

// Outcome 結算結果，只在 Resolved 時有值。
type Outcome string

const (
	OutcomeNone Outcome = ""
	PlayerWin   Outcome = "player_win"
	DealerWin   Outcome = "dealer_win"
	Push        Outcome = "push"
	PlayerBust  Outcome = "player_bust"
)

// Status 對外的牌局狀態
type Status string

const (
	InProgress     Status = "in_progress"
	StatusBust     Status = "player_bust"
	StatusResolved Status = "resolved"
)

// Action 玩家動作
type Action string

const (
	Hit   Action = "hit"
	Stand Action = "stand"
)

// ParseAction 只接受 hit / stand。
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case Hit, Stand:
		return a, nil
	}
	return "", errs.InvalidRoundState("unknown action %q", s)
}

// Round 一局 21 點的完整狀態。
//
// Round 是值型別：ApplyAction 回傳新的 Round，傳入的值不會被改動，
// 呼叫端負責保存與同一局的序列化。
type Round struct {
	ID      uuid.UUID `json:"id"`
	Deck    Deck      `json:"deck"`
	Player  Hand      `json:"player"`
	Dealer  Hand      `json:"dealer"`
	Phase   Phase     `json:"phase"`
	Outcome Outcome   `json:"outcome,omitempty"`
	StandOn int       `json:"stand_on"`
}

// Option 調整開局規則
type Option func(*Round)

// StandOn 設定莊家停牌點數，<= 0 時沿用預設值。
func StandOn(n int) Option {
	return func(r *Round) {
		if n > 0 {
			r.StandOn = n
		}
	}
}

// StartRound 以 src 洗一副新牌並發牌，回傳處於 PlayerTurn 的新局。
func StartRound(src core.OutcomeSource, opts ...Option) (Round, error) {
	return Deal(Shuffled(src), opts...)
}

// Deal 以給定的牌序發牌：玩家先抽兩張，莊家再抽兩張（皆從尾端抽）。
// 傳入的牌堆會被複製，不影響呼叫端。
func Deal(deck Deck, opts ...Option) (Round, error) {
	r := Round{
		ID:      uuid.New(),
		Deck:    append(Deck(nil), deck...),
		Phase:   Dealing,
		StandOn: DefaultStandOn,
	}
	for _, opt := range opts {
		opt(&r)
	}
	for _, h := range []*Hand{&r.Player, &r.Player, &r.Dealer, &r.Dealer} {
		if err := r.draw(h); err != nil {
			return Round{}, err
		}
	}
	r.Phase = PlayerTurn
	return r, nil
}

// ApplyAction 對進行中的牌局套用 hit 或 stand。
//
//   - hit：玩家抽一張；爆牌即 Resolved（PlayerBust）。
//   - stand：進入莊家回合，莊家點數小於 StandOn 時持續抽牌，之後比牌並 Resolved。
//
// 已 Resolved 的牌局回傳 InvalidRoundState；牌堆耗盡回傳 DeckExhausted。
func ApplyAction(r Round, a Action) (Round, error) {
	if r.Phase != PlayerTurn {
		return r, errs.InvalidRoundState("round %s is %s", r.ID, r.Phase)
	}
	next := r.clone()
	switch a {
	case Hit:
		if err := next.draw(&next.Player); err != nil {
			return r, err
		}
		if IsBust(next.Player) {
			next.resolve()
		}
	case Stand:
		next.Phase = DealerTurn
		for Score(next.Dealer) < next.standOn() {
			if err := next.draw(&next.Dealer); err != nil {
				return r, err
			}
		}
		next.resolve()
	default:
		return r, errs.InvalidRoundState("unknown action %q", a)
	}
	return next, nil
}

// Status 由 Phase 與 Outcome 推導對外狀態。
func (r Round) Status() Status {
	switch {
	case r.Phase != Resolved:
		return InProgress
	case r.Outcome == PlayerBust:
		return StatusBust
	default:
		return StatusResolved
	}
}

// Done 牌局已結束
func (r Round) Done() bool { return r.Phase == Resolved }

func (r Round) PlayerScore() int { return Score(r.Player) }

func (r Round) DealerScore() int { return Score(r.Dealer) }

// Settlement 牌局結算：Delta 為 +unit（玩家贏）、-unit（莊家贏或玩家爆牌）或 0（和局）。
type Settlement struct {
	RoundID     uuid.UUID       `json:"round_id"`
	Outcome     Outcome         `json:"outcome"`
	PlayerScore int             `json:"player_score"`
	DealerScore int             `json:"dealer_score"`
	Delta       decimal.Decimal `json:"delta"`
}

// Settle 以固定單位結算已結束的牌局；未結束時回傳 InvalidRoundState。
func (r Round) Settle(unit decimal.Decimal) (Settlement, error) {
	if r.Phase != Resolved {
		return Settlement{}, errs.InvalidRoundState("round %s not resolved", r.ID)
	}
	s := Settlement{
		RoundID:     r.ID,
		Outcome:     r.Outcome,
		PlayerScore: r.PlayerScore(),
		DealerScore: r.DealerScore(),
		Delta:       decimal.Zero,
	}
	switch r.Outcome {
	case PlayerWin:
		s.Delta = unit
	case DealerWin, PlayerBust:
		s.Delta = unit.Neg()
	}
	return s, nil
}

func (r *Round) draw(h *Hand) error {
	c, rest, err := r.Deck.Draw()
	if err != nil {
		return errs.Wrap(err, "round "+r.ID.String())
	}
	r.Deck = rest
	*h = append(*h, c)
	return nil
}

// resolve 只在進入 Resolved 時計算一次結果。
func (r *Round) resolve() {
	p, d := Score(r.Player), Score(r.Dealer)
	switch {
	case p > BustOver:
		r.Outcome = PlayerBust
	case d > BustOver, p > d:
		r.Outcome = PlayerWin
	case p < d:
		r.Outcome = DealerWin
	default:
		r.Outcome = Push
	}
	r.Phase = Resolved
}

func (r Round) standOn() int {
	if r.StandOn <= 0 {
		return DefaultStandOn
	}
	return r.StandOn
}

func (r Round) clone() Round {
	r.Deck = append(Deck(nil), r.Deck...)
	r.Player = append(Hand(nil), r.Player...)
	r.Dealer = append(Hand(nil), r.Dealer...)
	return r
}
