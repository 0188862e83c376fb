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

// BustOver 超過此點數即爆牌
const BustOver = 21

// score 回傳最佳點數與仍以 11 計算的 A 張數。
func score(h Hand) (total int, soft int) {
	for _, c := range h {
		total += c.Value()
		if c.Rank == Ace {
			soft++
		}
	}
	for total > BustOver && soft > 0 {
		total -= 10
		soft--
	}
	return total, soft
}

// Score 計算手牌最佳點數：A 先算 11，總和超過 21 時逐張把 A 降為 1，直到不爆或沒有 A 可降。
func Score(h Hand) int {
	t, _ := score(h)
	return t
}

// IsBust 點數超過 21
func IsBust(h Hand) bool { return Score(h) > BustOver }

// IsSoft 至少有一張 A 仍以 11 計算
func IsSoft(h Hand) bool {
	_, s := score(h)
	return s > 0
}
