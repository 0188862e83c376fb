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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code 是穩定的錯誤分類碼，讓上層可以用 errors.Is 判斷錯誤種類，而不必比對訊息字串。
type Code string

const (
	CodeNone              Code = ""
	CodeInvalidBet        Code = "invalid_bet"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeInvalidRoundState Code = "invalid_round_state"
	CodeDeckExhausted     Code = "deck_exhausted"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
)

// 桌台規則層的錯誤分類。
//
// 驗證類錯誤（InvalidBet / InsufficientFunds / InvalidRoundState）一律為 Warn：
// 代表請求本身不合法，桌台與帳戶狀態都沒有被動到。
// DeckExhausted 為 Fatal：正常牌局不可能發生，代表牌局狀態不可信。
var (
	ErrInvalidBet        = &E{Message: "invalid bet", ErrLv: Warn, Code: CodeInvalidBet}
	ErrInsufficientFunds = &E{Message: "insufficient funds", ErrLv: Warn, Code: CodeInsufficientFunds}
	ErrInvalidRoundState = &E{Message: "invalid round state", ErrLv: Warn, Code: CodeInvalidRoundState}
	ErrDeckExhausted     = &E{Message: "deck exhausted", ErrLv: Fatal, Code: CodeDeckExhausted}
	ErrNotFound          = &E{Message: "not found", ErrLv: Warn, Code: CodeNotFound}
	ErrConflict          = &E{Message: "conflict", ErrLv: Warn, Code: CodeConflict}
)

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重程度；Code 為可比對的錯誤分類（可為空）。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 讓同一個 Code 的錯誤彼此相等，例如 errors.Is(err, errs.ErrInvalidBet)。
// 沒有 Code 的錯誤只和自己相等。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	if e.Code == CodeNone || t.Code == CodeNone {
		return e == t
	}
	return e.Code == t.Code
}

// New 依錯誤碼與參數建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// WithExtra 以分類錯誤為樣板建立一個帶上下文的新錯誤，保留其 Message / ErrLv / Code。
//
//	return errs.WithExtra(errs.ErrInvalidBet, "bet=purple")
func WithExtra(kind *E, extra string) *E {
	return &E{Message: kind.Message, Extra: extra, ErrLv: kind.ErrLv, Code: kind.Code}
}

func InvalidBet(format string, a ...any) *E {
	return WithExtra(ErrInvalidBet, fmt.Sprintf(format, a...))
}

func InsufficientFunds(format string, a ...any) *E {
	return WithExtra(ErrInsufficientFunds, fmt.Sprintf(format, a...))
}

func InvalidRoundState(format string, a ...any) *E {
	return WithExtra(ErrInvalidRoundState, fmt.Sprintf(format, a...))
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code（保持原本嚴重度與分類）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
//
// 建議使用方式：
//   - 若你已判斷該錯誤是「可預期且可處理」的情境，請直接建立一個 *E
//     （使用 New / NewWithExtra 並自行指定 ErrLv），而不要對其呼叫 Wrap。
func Wrap(cause error, msg string) *E {
	errLv := Fatal
	code := CodeNone
	if e, ok := AsErr(cause); ok {
		errLv = e.ErrLv
		code = e.Code
	}
	r := New(errLv, msg)
	r.Code = code
	r.Cause = cause
	return r
}

// WrapWarn 包裝一個「可預期」的下層錯誤（例如 ctx 取消/逾時），ErrLv 固定為 Warn。
func WrapWarn(cause error, msg string) *E {
	r := NewWarn(msg)
	r.Cause = cause
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// Level 回傳 err 的嚴重程度；非本包錯誤視為 Fatal，nil 為 None。
func Level(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}
