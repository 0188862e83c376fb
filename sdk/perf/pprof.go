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


// Package perf 把一次模擬包進 pprof，供 cmd/run 做性能分析或產出 PGO profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/tablelab/errs"
)

// DefaultDir 預設 profile 寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的 profile 種類；空字串代表不開 profiling。
var Modes = []string{"", "cpu", "heap", "allocs", "mutex", "block"}

// Run 依 mode 包裝 exe 並把 profile 寫到 dir/<mode>.pprof，回傳寫出的檔案路徑。
//
//	go run ./cmd/run -game roulette -bet red -p cpu
func Run(dir string, mode string, exe func() error) (string, error) {
	if exe == nil {
		return "", errs.NewFatal("nil exe")
	}
	if mode == "" {
		return "", exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "cpu":
		return cpu(dir, exe)
	case "heap", "allocs":
		return snapshot(dir, mode, exe, func() { runtime.GC() })
	case "mutex":
		prev := runtime.SetMutexProfileFraction(1)
		defer runtime.SetMutexProfileFraction(prev)
		return snapshot(dir, mode, exe, nil)
	case "block":
		runtime.SetBlockProfileRate(1)
		defer runtime.SetBlockProfileRate(0)
		return snapshot(dir, mode, exe, nil)
	}
	return "", errs.Warnf("unknown pprof mode %q", mode)
}

func create(dir string, mode string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, mode+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return nil, "", errs.Wrap(err, "create "+path)
	}
	return f, path, nil
}

// cpu 在 exe 執行期間取樣
func cpu(dir string, exe func() error) (string, error) {
	f, path, err := create(dir, "cpu")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return "", errs.Wrap(err, "start cpu profile")
	}
	err = exe()
	pprof.StopCPUProfile()
	return path, err
}

// snapshot 在 exe 結束後拍一次快照。heap 快照前先 GC，讓 live objects 貼近最新狀態。
func snapshot(dir string, mode string, exe func() error, before func()) (string, error) {
	if err := exe(); err != nil {
		return "", err
	}
	if before != nil {
		before()
	}
	f, path, err := create(dir, mode)
	if err != nil {
		return "", err
	}
	defer f.Close()
	prof := pprof.Lookup(mode)
	if prof == nil {
		return "", errs.Fatalf("profile %s not available", mode)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return "", errs.Wrap(err, "write "+mode+" profile")
	}
	return path, nil
}
