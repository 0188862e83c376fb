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

// Package store 定義帳戶、開獎稽核、帳本分錄與 21 點牌局的持久化介面。
//
// 規則層不碰儲存；house 服務在一個 Tx 內讀餘額、結算、寫回餘額與稽核紀錄。
// 找不到資料回 errs.ErrNotFound，唯一鍵衝突（重複 email）回 errs.ErrConflict。
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/ledger"
)

// Account 玩家帳戶
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SpinRecord 一筆已結算輪盤下注的稽核紀錄（只增不改）。
//
// 同一次多注開獎的紀錄共用 SpinID 與 StartSnap；以 StartSnap 還原 Core 可重開同一個 Result。
type SpinRecord struct {
	ID           uuid.UUID       `json:"id"`
	SpinID       uuid.UUID       `json:"spin_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Seq          int             `json:"seq"`
	Bet          string          `json:"bet"`
	Amount       decimal.Decimal `json:"amount"`
	Result       int             `json:"result"`
	Won          bool            `json:"won"`
	Payout       decimal.Decimal `json:"payout"`
	Delta        decimal.Decimal `json:"delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	StartSnap    []byte          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RoundRecord 帳戶目前（或最後一局）的 21 點牌局。
//
// 每個帳戶只保留一局，開新局時覆蓋；Settled 表示固定輸贏單位已經入帳。
type RoundRecord struct {
	AccountID uuid.UUID       `json:"account_id"`
	Round     blackjack.Round `json:"round"`
	Settled   bool            `json:"settled"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LedgerRecord 一筆已過帳的餘額變動
type LedgerRecord struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	ledger.Posting
	CreatedAt time.Time `json:"created_at"`
}

// Store 持久化入口。
type Store interface {
	CreateAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	ListSpins(ctx context.Context, accountID uuid.UUID, limit int) ([]SpinRecord, error)
	GetSpin(ctx context.Context, id uuid.UUID) (SpinRecord, error)
	ListLedger(ctx context.Context, accountID uuid.UUID, limit int) ([]LedgerRecord, error)
	// InTx 在單一交易內執行 fn；fn 回傳 error 時整筆回滾。
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx 交易內可用的操作
type Tx interface {
	CreateAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, at time.Time) error
	InsertSpins(ctx context.Context, recs ...SpinRecord) error
	InsertLedger(ctx context.Context, recs ...LedgerRecord) error
	GetRound(ctx context.Context, accountID uuid.UUID) (RoundRecord, error)
	PutRound(ctx context.Context, rec RoundRecord) error
}
