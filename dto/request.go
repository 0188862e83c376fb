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

package dto

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/roulette"
)

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

// RegisterRequest 開戶
type RegisterRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name"  validate:"required,max=64"`
}

// WagerRequest 一注輪盤。bet 可為 JSON 數字（17）或字串（"17"、"red"、"1to12"）。
type WagerRequest struct {
	Bet    roulette.Bet    `json:"bet"    validate:"required,roulettebet"`
	Amount decimal.Decimal `json:"amount" validate:"stake"`
}

// Wager 轉成規則層的下注
func (w WagerRequest) Wager() roulette.Wager {
	return roulette.Wager{Bet: w.Bet, Stake: w.Amount}
}

// MultiSpinRequest 多注輪盤，整批共用一次開獎。
type MultiSpinRequest struct {
	Bets []WagerRequest `json:"bets" validate:"required,min=1,max=64,dive"`
}

// Wagers 依輸入順序轉成規則層的下注
func (m MultiSpinRequest) Wagers() []roulette.Wager {
	out := make([]roulette.Wager, len(m.Bets))
	for i, b := range m.Bets {
		out[i] = b.Wager()
	}
	return out
}

// ActionRequest 21 點動作
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=hit stand"`
}

// Parse 轉成規則層的動作
func (a ActionRequest) Parse() (blackjack.Action, error) {
	return blackjack.ParseAction(a.Action)
}

// SimRequest 桌台模擬（輪盤需帶 bet；21 點忽略 bet）。
type SimRequest struct {
	Bet     *roulette.Bet `json:"bet,omitempty"`
	Stake   int64         `json:"stake"             validate:"gte=1"`
	Round   int           `json:"round"             validate:"gte=1,lte=1000000"`
	Workers int           `json:"workers,omitempty" validate:"omitempty,gte=1,lte=64"`
	Seed    *int64        `json:"seed,omitempty"`
}

// SimPlayersRequest 多玩家模擬
type SimPlayersRequest struct {
	SimRequest
	Player int `json:"player" validate:"gte=1,lte=100000"`
	Bets   int `json:"bets"   validate:"gte=1"`
}

// DecodeJSON 解析 JSON body 並執行欄位驗證。未知欄位視為格式錯誤。
func DecodeJSON(r *http.Request, v any) error {
	if r == nil || r.Body == nil {
		return errs.NewWarn("nil request")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if e, ok := errs.AsErr(err); ok {
			return e
		}
		return errs.WrapWarn(err, "invalid json")
	}
	return Validate(v)
}

// DecodeSimQuery 以 query string 組出模擬請求（GET 用）。
func DecodeSimQuery(q url.Values) (*SimRequest, error) {
	req := new(SimRequest)
	if s := strings.TrimSpace(q.Get("bet")); s != "" {
		b, err := roulette.ParseBet(s)
		if err != nil {
			return nil, err
		}
		req.Bet = &b
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"round", &req.Round},
		{"workers", &req.Workers},
	}
	for _, f := range ints {
		if s := q.Get(f.key); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("%s must be integer", f.key)
			}
			*f.dst = v
		}
	}
	if s := q.Get("stake"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("stake must be integer")
		}
		req.Stake = v
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("seed must be int64")
		}
		req.Seed = &v
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseLimit 解析 ?limit=，空值回傳 0（由儲存層套用預設）。
func ParseLimit(q url.Values) (int, error) {
	s := q.Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errs.NewWarn("limit must be non-negative integer")
	}
	return n, nil
}
