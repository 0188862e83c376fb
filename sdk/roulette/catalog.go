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
	"encoding/json"
	"strconv"
	"strings"

	"github.com/zintix-labs/tablelab/errs"
)

// MaxNumber 輪盤最大號碼，號碼範圍為 [0, MaxNumber]。
const MaxNumber = 36

// Color 號碼顏色
type Color uint8

const (
	None Color = iota
	Red
	Black
)

var colorName = [...]string{None: "none", Red: "red", Black: "black"}

func (c Color) String() string {
	if int(c) < len(colorName) {
		return colorName[c]
	}
	return "none"
}

// colorTable 在載入時固定，0 為 None。
var colorTable = func() [MaxNumber + 1]Color {
	var t [MaxNumber + 1]Color
	for n := 1; n <= MaxNumber; n++ {
		t[n] = Black
	}
	for _, n := range []int{1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36} {
		t[n] = Red
	}
	return t
}()

// ColorOf 回傳號碼顏色，範圍外的號碼回傳 None。
func ColorOf(n int) Color {
	if n < 0 || n > MaxNumber {
		return None
	}
	return colorTable[n]
}

// Kind 下注種類
type Kind uint8

const (
	KindInvalid Kind = iota
	Straight         // 單號 0..36
	KindRed
	KindBlack
	Even
	Odd
	Low    // 1to12
	Mid    // 13to24
	High   // 25to36
	Column // 2to1
)

// 對外的下注代號（與前端/歷史紀錄一致）
var kindID = map[Kind]string{
	KindRed:   "red",
	KindBlack: "black",
	Even:      "even",
	Odd:       "odd",
	Low:       "1to12",
	Mid:       "13to24",
	High:      "25to36",
	Column:    "2to1",
}

var idKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindID))
	for k, id := range kindID {
		m[id] = k
	}
	return m
}()

// multipliers 為贏時的返還倍數（含本金），輸一律沒收本金。
var multipliers = map[Kind]int64{
	Straight:  35,
	KindRed:   2,
	KindBlack: 2,
	Even:      2,
	Odd:       2,
	Low:       3,
	Mid:       3,
	High:      3,
	Column:    3,
}

// Bet 是封閉的下注目錄中的一個項目。
// Number 只在 Kind == Straight 時有意義。
type Bet struct {
	Kind   Kind
	Number int
}

// Number 建立單號下注；號碼不在範圍內時回傳的 Bet 不合法（IsValid 為 false）。
func Number(n int) Bet {
	if n < 0 || n > MaxNumber {
		return Bet{}
	}
	return Bet{Kind: Straight, Number: n}
}

// Symbolic 建立符號類下注（red / black / ... / 2to1）。
func Symbolic(k Kind) Bet {
	if k == Straight {
		return Bet{}
	}
	return Bet{Kind: k}
}

// ParseBet 解析下注代號：數字字串 "0".."36" 或符號代號。
// 大小寫與前後空白不影響結果。
func ParseBet(s string) (Bet, error) {
	id := strings.ToLower(strings.TrimSpace(s))
	if k, ok := idKind[id]; ok {
		return Bet{Kind: k}, nil
	}
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 || n > MaxNumber {
		return Bet{}, errs.InvalidBet("bet=%q", s)
	}
	return Bet{Kind: Straight, Number: n}, nil
}

// IsValid 檢查是否屬於封閉的下注目錄（37 個單號 + 8 個符號類）。
func IsValid(b Bet) bool {
	switch b.Kind {
	case Straight:
		return b.Number >= 0 && b.Number <= MaxNumber
	case KindInvalid:
		return false
	default:
		_, ok := kindID[b.Kind]
		return ok && b.Number == 0
	}
}

// Multiplier 回傳贏時的返還倍數，不合法的下注回傳 0。
func Multiplier(b Bet) int64 {
	if !IsValid(b) {
		return 0
	}
	return multipliers[b.Kind]
}

// Wins 判斷下注在開出號碼 n 時是否贏。
//
// 0 只對單號 0 贏；除了 2to1 之外，所有符號類都排除 0。
// 2to1 只要不是 0 就贏（沿用既有的賠付規則）。
func Wins(b Bet, n int) bool {
	if n < 0 || n > MaxNumber || !IsValid(b) {
		return false
	}
	switch b.Kind {
	case Straight:
		return n == b.Number
	case KindRed:
		return ColorOf(n) == Red
	case KindBlack:
		return ColorOf(n) == Black
	case Even:
		return n != 0 && n%2 == 0
	case Odd:
		return n%2 == 1
	case Low:
		return n >= 1 && n <= 12
	case Mid:
		return n >= 13 && n <= 24
	case High:
		return n >= 25 && n <= 36
	case Column:
		return n != 0
	}
	return false
}

// String 回傳對外代號，例如 "17"、"red"、"1to12"。
func (b Bet) String() string {
	if b.Kind == Straight {
		return strconv.Itoa(b.Number)
	}
	if id, ok := kindID[b.Kind]; ok {
		return id
	}
	return "invalid"
}

// MarshalText 以對外代號輸出。
func (b Bet) MarshalText() ([]byte, error) {
	if !IsValid(b) {
		return nil, errs.InvalidBet("bet=%v", b.Kind)
	}
	return []byte(b.String()), nil
}

// UnmarshalText 接受對外代號。
func (b *Bet) UnmarshalText(text []byte) error {
	v, err := ParseBet(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalJSON 同時接受 JSON 數字（17）與字串（"17"、"red"）。
func (b *Bet) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return b.UnmarshalText([]byte(n.String()))
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errs.InvalidBet("bet=%s", string(data))
	}
	return b.UnmarshalText([]byte(s))
}
