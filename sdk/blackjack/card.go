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
	"strconv"
	"strings"

	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
)

// DeckSize 一副牌的張數
const DeckSize = 52

// Rank 牌面點數：Ace=1，2..10，Jack=11，Queen=12，King=13。
type Rank uint8

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Suit 花色
type Suit byte

const (
	Hearts   Suit = 'H'
	Diamonds Suit = 'D'
	Clubs    Suit = 'C'
	Spades   Suit = 'S'
)

var suits = [...]Suit{Hearts, Diamonds, Clubs, Spades}

// Card 一張牌，文字形式為 rank+suit，例如 "AH"、"10D"、"KS"。
type Card struct {
	Rank Rank
	Suit Suit
}

// Value 單張點數：數字牌為面值，J/Q/K 為 10，A 先算 11。
func (c Card) Value() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= 10:
		return 10
	default:
		return int(c.Rank)
	}
}

func (c Card) String() string {
	var r string
	switch c.Rank {
	case Ace:
		r = "A"
	case Jack:
		r = "J"
	case Queen:
		r = "Q"
	case King:
		r = "K"
	default:
		r = strconv.Itoa(int(c.Rank))
	}
	return r + string(rune(c.Suit))
}

func (c Card) valid() bool {
	if c.Rank < Ace || c.Rank > King {
		return false
	}
	for _, s := range suits {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// ParseCard 解析 "AH"、"10D" 這類文字。
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, errs.Warnf("invalid card %q", s)
	}
	c := Card{Suit: Suit(s[len(s)-1])}
	switch r := s[:len(s)-1]; r {
	case "A":
		c.Rank = Ace
	case "J":
		c.Rank = Jack
	case "Q":
		c.Rank = Queen
	case "K":
		c.Rank = King
	default:
		n, err := strconv.Atoi(r)
		if err != nil || n < 2 || n > 10 {
			return Card{}, errs.Warnf("invalid card %q", s)
		}
		c.Rank = Rank(n)
	}
	if !c.valid() {
		return Card{}, errs.Warnf("invalid card %q", s)
	}
	return c, nil
}

// MustCards 解析多張牌，失敗時 panic；只給固定牌序的測試與回放使用。
func MustCards(ss ...string) []Card {
	out := make([]Card, len(ss))
	for i, s := range ss {
		c, err := ParseCard(s)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, errs.Warnf("invalid card rank=%d suit=%d", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	v, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Deck 牌堆，從尾端抽牌，抽出的牌不會放回。
type Deck []Card

// NewDeck 回傳 52 張未洗的牌（依點數、花色排列）。
func NewDeck() Deck {
	d := make(Deck, 0, DeckSize)
	for r := Ace; r <= King; r++ {
		for _, s := range suits {
			d = append(d, Card{Rank: r, Suit: s})
		}
	}
	return d
}

// Shuffled 回傳一副以 src 均勻隨機排列的新牌。
func Shuffled(src core.OutcomeSource) Deck {
	d := NewDeck()
	src.Permute(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
	return d
}

// Draw 從尾端抽一張，回傳抽牌後的牌堆；空牌堆回傳 DeckExhausted。
func (d Deck) Draw() (Card, Deck, error) {
	if len(d) == 0 {
		return Card{}, d, errs.ErrDeckExhausted
	}
	return d[len(d)-1], d[:len(d)-1], nil
}

// Hand 手牌，只會在尾端追加。
type Hand []Card

func (h Hand) Strings() []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}
	return out
}
