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

package core

// Scripted 是預先寫好結果的 OutcomeSource，用於回放與測試。
//
//   - Pocket 依序回傳 Pockets 內的號碼，用完後從頭循環；空列表回傳 0。
//   - Permute 不重排（保持原順序），牌局要指定牌序請直接用 blackjack.Deal。
//
// Draws 記錄 Pocket 被呼叫的次數，方便斷言「驗證失敗時沒有開獎」。
type Scripted struct {
	Pockets []int
	Draws   int
}

func NewScripted(pockets ...int) *Scripted {
	return &Scripted{Pockets: pockets}
}

func (s *Scripted) Pocket() int {
	defer func() { s.Draws++ }()
	if len(s.Pockets) == 0 {
		return 0
	}
	return s.Pockets[s.Draws%len(s.Pockets)]
}

func (s *Scripted) Permute(int, func(i, j int)) {}
