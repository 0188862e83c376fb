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

// Package tablelab 提供桌台引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個必需的地基組裝在一起，並提供建立 Table 的入口：
//  1. TableSetting：桌規（最低下注、多注上限、21 點固定輸贏單位、莊家停牌點數、開戶餘額）。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// 規則本身（輪盤目錄與賠付、21 點狀態機、計分、帳本）放在 sdk/ 底下，全部是純函數；
// Table 只負責持有亂數核心並在開獎前後留下快照。
//
// 典型使用情境：
//   - 後端服務：BuildRuntime(n) 建立桌台池，由 house 服務借桌結算。
//   - 模擬器：NewSimulator 建立多張桌台平行跑局數並輸出統計報表。
package tablelab

import (
	"io/fs"

	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/spec"
)

// Lab 是組裝器：一份桌規 + 一個亂數工廠。
//
// Lab 建好後只讀，可以被多個 goroutine 共用來建立 Table / Runtime / Simulator。
type Lab struct {
	cf core.PRNGFactory
	ts *spec.TableSetting
}

// New 建立一個 Lab。cf 與 ts 都不能為 nil。
func New(cf core.PRNGFactory, ts *spec.TableSetting) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if ts == nil {
		return nil, errs.NewFatal("table setting required")
	}
	return &Lab{cf: cf, ts: ts}, nil
}

// NewFromFS 從 fs.FS 讀取桌規（.yaml/.yml/.json）後組裝 Lab。
//
// Lab 不解析路徑：設定來源可以是 go:embed、os.DirFS 或測試用的 fstest.MapFS。
func NewFromFS(cf core.PRNGFactory, fsys fs.FS, name string) (*Lab, error) {
	ts, err := spec.LoadTableSetting(fsys, name)
	if err != nil {
		return nil, err
	}
	return New(cf, ts)
}

// Setting 回傳桌規的複本。
func (l *Lab) Setting() spec.TableSetting {
	return *l.ts
}

// NewTable 以 crypto/rand 產生的 seed 建立 Table。
func (l *Lab) NewTable() (*Table, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return l.NewTableWithSeed(seed), nil
}

// NewTableWithSeed 以指定 seed 建立 Table；同一份桌規 + 同一個 seed 得到同一串開獎。
func (l *Lab) NewTableWithSeed(seed int64) *Table {
	return newTableWithSeed(l.ts, l.cf, seed)
}

// NewSimulator 建立模擬器，seed 由 crypto/rand 產生。
func (l *Lab) NewSimulator() (*Simulator, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSimulatorWithSeed(seed), nil
}

// NewSimulatorWithSeed 以指定 seed 建立模擬器，所有平行桌台的 seed 皆由它派生。
func (l *Lab) NewSimulatorWithSeed(seed int64) *Simulator {
	return newSimulatorWithSeed(l.ts, l.cf, seed)
}

// BuildRuntime 建立對外服務用的 Runtime，內含 poolSize 張桌台。
func (l *Lab) BuildRuntime(poolSize int) (*Runtime, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return l.BuildRuntimeWithSeed(poolSize, seed)
}

// BuildRuntimeWithSeed 同 BuildRuntime，但桌台 seed 由指定 seed 派生（測試與回放用）。
func (l *Lab) BuildRuntimeWithSeed(poolSize int, seed int64) (*Runtime, error) {
	pool, err := newTablePool(poolSize, l.ts, l.cf, seed)
	if err != nil {
		return nil, err
	}
	return newRuntime(l, pool), nil
}
