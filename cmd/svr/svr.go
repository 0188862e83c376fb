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


package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/configs"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/server"
	"github.com/zintix-labs/tablelab/server/app"
	"github.com/zintix-labs/tablelab/server/logger"
	"github.com/zintix-labs/tablelab/server/svrcfg"
	"github.com/zintix-labs/tablelab/store/sqlite"
)

// 桌台服務入口。所有設定走 TABLELAB_ 前綴的環境變數：
//
//	TABLELAB_ADDR         監聽位址（預設 :5808）
//	TABLELAB_DB_PATH      SQLite 檔案（預設 tablelab.db，:memory: 為記憶體資料庫）
//	TABLELAB_LOG_MODE     dev | prod | silence
//	TABLELAB_LOG_BUF      非同步 log 緩衝
//	TABLELAB_TABLE_BUF    桌台池大小
//	TABLELAB_CONFIG       桌規檔路徑，留空使用內建 default.yaml
//	TABLELAB_REQ_TIMEOUT  單一請求逾時（例如 5s）
func main() {
	env, err := svrcfg.ParseEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, ah := logger.NewAsync(env.LogBuf, env.LogMode)

	lab, err := loadLab(env.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		ah.Close()
		os.Exit(1)
	}
	rt, err := lab.BuildRuntime(env.TableBuf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		ah.Close()
		os.Exit(1)
	}
	st, err := sqlite.Open(context.Background(), env.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		rt.Close()
		ah.Close()
		os.Exit(1)
	}
	h, err := house.New(st, rt, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = st.Close()
		rt.Close()
		ah.Close()
		os.Exit(1)
	}

	sCfg := &svrcfg.SvrCfg{
		Log:        log,
		Lab:        lab,
		House:      h,
		ReqTimeout: env.ReqTimeout,
	}
	// 關閉順序：先停桌台，再關資料庫，最後把 log 刷完
	server.Run(sCfg, env.Addr,
		app.OnShutdown(func(context.Context) error { rt.Close(); return nil }),
		app.OnShutdown(func(context.Context) error { return st.Close() }),
		app.OnShutdown(func(context.Context) error { ah.Close(); return nil }),
	)
}

func loadLab(path string) (*tablelab.Lab, error) {
	var (
		fsys fs.FS  = configs.FS
		name string = configs.DefaultName
	)
	if path != "" {
		fsys, name = os.DirFS(filepath.Dir(path)), filepath.Base(path)
	}
	return tablelab.NewFromFS(core.Default(), fsys, name)
}
