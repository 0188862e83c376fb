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


// Package logger 組裝 server 用的 slog：依 LogMode 挑選格式，並可包成非阻塞的 AsyncHandler。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zintix-labs/tablelab/errs"
)

// LogMode 日誌模式
type LogMode uint8

const (
	ModeDev     LogMode = iota // text + debug，寫到 stderr
	ModeProd                   // JSON + info，寫到 stdout 給收集器
	ModeSilence                // 全部丟掉
)

var modeNames = [...]string{ModeDev: "dev", ModeProd: "prod", ModeSilence: "silence"}

func (m LogMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode 接受 dev / prod / silence（不分大小寫）。
func ParseMode(s string) (LogMode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return LogMode(i), nil
		}
	}
	return ModeDev, errs.Warnf("unknown log mode %q", s)
}

// UnmarshalText 讓環境變數（TABLELAB_LOG_MODE）可以直接解析成 LogMode。
func (m *LogMode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// NewHandler 依模式建立同步 handler；w 為 nil 時 dev 寫 stderr、prod 寫 stdout。
func NewHandler(w io.Writer, mode LogMode) slog.Handler {
	switch mode {
	case ModeSilence:
		return slog.DiscardHandler
	case ModeProd:
		if w == nil {
			w = os.Stdout
		}
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}).
			WithAttrs([]slog.Attr{slog.String("svc", "tablelab")})
	default:
		if w == nil {
			w = os.Stderr
		}
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
