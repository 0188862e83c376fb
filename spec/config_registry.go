package spec

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/tablelab/errs"
	"gopkg.in/yaml.v3"
)

// GetTableSettingByYAML
// 會讀取 YAML 設定、補上預設值並執行基本檢查後回傳。
func GetTableSettingByYAML(data []byte) (*TableSetting, error) {
	ts := &TableSetting{}
	if err := yaml.Unmarshal(data, ts); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "table setting initialized err")
	}
	return ts, nil
}

// GetTableSettingByJSON
// 會讀取 Json 設定、補上預設值並執行基本檢查後回傳
func GetTableSettingByJSON(data []byte) (*TableSetting, error) {
	ts := &TableSetting{}
	if err := json.Unmarshal(data, ts); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "table setting initialized err")
	}
	return ts, nil
}

// LoadTableSetting 從 fs.FS 讀取指定設定檔，依副檔名（.yaml/.yml/.json）選擇解析方式。
func LoadTableSetting(fsys fs.FS, name string) (*TableSetting, error) {
	if fsys == nil {
		return nil, errs.NewFatal("configs required")
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read config failed: "+name)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return GetTableSettingByYAML(raw)
	case ".json":
		return GetTableSettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", name)
	}
}
