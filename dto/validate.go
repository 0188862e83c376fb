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

package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/roulette"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance 延遲建立；validator.Validate 本身併發安全，且會快取 struct 解析結果。
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// 錯誤訊息用 json 欄位名
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// Bet 以對外代號參與驗證；不合法的 Bet 視為空值
		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			b, ok := f.Interface().(roulette.Bet)
			if !ok || !roulette.IsValid(b) {
				return ""
			}
			return b.String()
		}, roulette.Bet{})
		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			d, ok := f.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			return d.String()
		}, decimal.Decimal{})
		_ = v.RegisterValidation("roulettebet", func(fl validator.FieldLevel) bool {
			_, err := roulette.ParseBet(fl.Field().String())
			return err == nil
		})
		// stake：非負、最多兩位小數
		_ = v.RegisterValidation("stake", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			if err != nil {
				return false
			}
			return !d.IsNegative() && d.Exponent() >= -2
		})
		validate = v
	})
	return validate
}

// Validate 執行 struct tag 驗證，失敗時回傳 Warn（下注欄位錯誤帶 InvalidBet 分類）。
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return errs.WrapWarn(err, "invalid request")
	}
	msgs := make([]string, 0, len(ves))
	betErr := false
	for _, fe := range ves {
		msgs = append(msgs, fe.Namespace()+" failed on "+fe.Tag())
		switch fe.Tag() {
		case "roulettebet", "stake":
			betErr = true
		}
		if fe.Field() == "bet" {
			betErr = true
		}
	}
	detail := strings.Join(msgs, "; ")
	if betErr {
		return errs.WithExtra(errs.ErrInvalidBet, detail)
	}
	return errs.NewWithExtra(errs.Warn, "invalid request", detail)
}
