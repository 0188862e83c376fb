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

// Pockets 為歐式輪盤的格數（0..36）。
const Pockets = 37

// OutcomeSource 是桌台規則層（sdk/roulette、sdk/blackjack）唯一的隨機來源。
//
// 規則引擎本身不持有任何亂數狀態：呼叫端把 OutcomeSource 傳進來，
// 引擎只在驗證全部通過後才取用它，因此驗證失敗時不會消耗任何亂數。
type OutcomeSource interface {
	// Pocket 回傳均勻分布於 [0, Pockets) 的輪盤號碼。
	Pocket() int
	// Permute 以均勻隨機排列重排 n 個元素，swap 由呼叫端提供。
	Permute(n int, swap func(i, j int))
}

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的，
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列（審計/回放/模擬派生都依賴這點）。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供桌台需要的取樣方法。
//
// Core 不是併發安全的；一個 Core 同時只能被一個 goroutine 使用（由 Table 的鎖保證）。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pocket 取一個輪盤號碼 [0,36]。
func (c *Core) Pocket() int {
	return c.IntN(Pockets)
}

// Permute 使用 Fisher-Yates (Knuth Shuffle) 就地重排 n 個元素。
//
// 所有 n! 種排列出現的機率嚴格相等；時間 O(n)，不配置記憶體。
func (c *Core) Permute(n int, swap func(i, j int)) {
	if n <= 1 {
		return
	}
	for i := n - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		swap(i, j)
	}
}

// ShuffleInts 對 []int 就地洗牌，行為同 Permute。
func (c *Core) ShuffleInts(src []int) {
	c.Permute(len(src), func(i, j int) { src[i], src[j] = src[j], src[i] })
}
