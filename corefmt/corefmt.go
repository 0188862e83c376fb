// Package corefmt 負責 PRNG 快照（[]byte）在不同傳輸媒介上的編碼。
//
// JSON/HTTP 用 Base64URL，日誌用 hex，資料庫直接存 BLOB。
package corefmt

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/zintix-labs/tablelab/errs"
)

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.NewWarn("decode base64url snapshot failed: " + err.Error())
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, nil
}

// EncodeBlob 複製一份快照，供 DB BLOB 欄位使用，避免與 PRNG 內部共用底層陣列。
func EncodeBlob(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
