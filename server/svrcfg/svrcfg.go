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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/server/logger"
)

// EnvCfg 由環境變數載入的行程設定。
type EnvCfg struct {
	Addr       string         `env:"ADDR"        envDefault:":5808"`
	DBPath     string         `env:"DB_PATH"     envDefault:"tablelab.db"`
	LogMode    logger.LogMode `env:"LOG_MODE"    envDefault:"dev"`
	LogBuf     int            `env:"LOG_BUF"     envDefault:"8192"`
	TableBuf   int            `env:"TABLE_BUF"   envDefault:"4"`
	Config     string         `env:"CONFIG"`
	ReqTimeout time.Duration  `env:"REQ_TIMEOUT" envDefault:"5s"`
}

// ParseEnv 讀取 TABLELAB_ 前綴的環境變數。
func ParseEnv() (EnvCfg, error) {
	var cfg EnvCfg
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "TABLELAB_"}); err != nil {
		return EnvCfg{}, errs.Wrap(err, "parse env")
	}
	return cfg, nil
}

// ParseEnvFrom 與 ParseEnv 相同，但從給定的 map 讀取（測試用）。
func ParseEnvFrom(vars map[string]string) (EnvCfg, error) {
	var cfg EnvCfg
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "TABLELAB_", Environment: vars}); err != nil {
		return EnvCfg{}, errs.WrapWarn(err, "parse env")
	}
	return cfg, nil
}

// SvrCfg 組裝 server 所需的依賴。
type SvrCfg struct {
	Log        *slog.Logger
	Lab        *tablelab.Lab
	House      *house.House
	ReqTimeout time.Duration
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.ReqTimeout <= 0 {
		sc.ReqTimeout = 5 * time.Second
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.House == nil {
		return errs.NewFatal("house is required")
	}
	return nil
}
