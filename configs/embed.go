package configs

import (
	"embed"
)

// DefaultName 內建預設桌台設定檔名
const DefaultName = "default.yaml"

// FS provides embedded default table configs.
//
//go:embed *.yaml
var FS embed.FS
