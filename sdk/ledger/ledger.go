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

// Package ledger 是唯一允許改動餘額的地方。
//
// 規則層只產生 delta；ledger 依序套用並留下每一筆的前後餘額。
// 餘額可以因輸局而變成負數，是否足額由下注前的 InsufficientFunds 檢查負責。
package ledger

import (
	"github.com/shopspring/decimal"
)

// Source 分錄來源
type Source string

const (
	SourceRoulette  Source = "roulette"
	SourceBlackjack Source = "blackjack"
	SourceAdjust    Source = "adjust"
)

// Entry 一筆待套用的餘額變動
type Entry struct {
	Source Source          `json:"source"`
	Ref    string          `json:"ref,omitempty"`
	Delta  decimal.Decimal `json:"delta"`
}

// Posting 已套用的分錄
type Posting struct {
	Entry
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
}

// Apply 套用一筆分錄
func Apply(balance decimal.Decimal, e Entry) Posting {
	return Posting{Entry: e, Before: balance, After: balance.Add(e.Delta)}
}

// ApplyAll 依輸入順序套用多筆分錄，回傳最終餘額與每一筆的過帳紀錄。
// 呼叫端要嘛保存最終餘額與全部紀錄，要嘛全部丟棄。
func ApplyAll(balance decimal.Decimal, entries ...Entry) (decimal.Decimal, []Posting) {
	out := make([]Posting, 0, len(entries))
	for _, e := range entries {
		p := Apply(balance, e)
		out = append(out, p)
		balance = p.After
	}
	return balance, out
}

// Net 分錄總和
func Net(entries ...Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Delta)
	}
	return sum
}
