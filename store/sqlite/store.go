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

// Package sqlite 以 SQLite（modernc.org/sqlite，免 cgo）實作 store.Store。
//
// 金額以 decimal 字串存 TEXT，時間以 UTC 毫秒存 INTEGER，Core 快照存 BLOB。
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/corefmt"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/ledger"
	"github.com/zintix-labs/tablelab/store"
	"github.com/zintix-labs/tablelab/store/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DefaultHistoryLimit 查詢歷史時未指定 limit 的預設筆數
const DefaultHistoryLimit = 50

// MaxHistoryLimit 單次查詢上限
const MaxHistoryLimit = 500

// Store persists accounts, spins, ledger entries and rounds in SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// querier 讓 Store 與 Tx 共用同一份 SQL。
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open 開啟 SQLite 檔案並套用內嵌 migrations。path 可用 ":memory:"（僅限單一連線）。
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errs.NewFatal("storage path is required")
	}
	if path != ":memory:" {
		path = filepath.Clean(path)
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite db")
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "ping sqlite db")
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errs.WrapWarn(err, "storage canceled/timeout")
	}
	if s == nil || s.db == nil {
		return errs.NewFatal("storage is not configured")
	}
	return nil
}

// CreateAccount 新增帳戶；email 重複回 errs.ErrConflict。
func (s *Store) CreateAccount(ctx context.Context, a store.Account) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return createAccount(ctx, s.db, a)
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (store.Account, error) {
	if err := s.ready(ctx); err != nil {
		return store.Account{}, err
	}
	return getAccount(ctx, s.db, id)
}

// ListSpins 依時間由新到舊回傳帳戶的輪盤稽核紀錄。
func (s *Store) ListSpins(ctx context.Context, accountID uuid.UUID, limit int) ([]store.SpinRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+spinColumns+` FROM roulette_spins
		  WHERE account_id = ?
		  ORDER BY created_at DESC, rowid DESC
		  LIMIT ?`,
		accountID.String(), clampLimit(limit),
	)
	if err != nil {
		return nil, errs.Wrap(err, "list spins")
	}
	defer rows.Close()

	out := make([]store.SpinRecord, 0)
	for rows.Next() {
		rec, err := scanSpin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "iterate spins")
	}
	return out, nil
}

func (s *Store) GetSpin(ctx context.Context, id uuid.UUID) (store.SpinRecord, error) {
	if err := s.ready(ctx); err != nil {
		return store.SpinRecord{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+spinColumns+` FROM roulette_spins WHERE id = ?`, id.String())
	rec, err := scanSpin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.SpinRecord{}, errs.WithExtra(errs.ErrNotFound, "spin "+id.String())
	}
	return rec, err
}

// ListLedger 依時間由新到舊回傳帳戶的過帳紀錄。
func (s *Store) ListLedger(ctx context.Context, accountID uuid.UUID, limit int) ([]store.LedgerRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, source, ref, delta, balance_before, balance_after, created_at
		   FROM ledger_entries
		  WHERE account_id = ?
		  ORDER BY created_at DESC, rowid DESC
		  LIMIT ?`,
		accountID.String(), clampLimit(limit),
	)
	if err != nil {
		return nil, errs.Wrap(err, "list ledger")
	}
	defer rows.Close()

	out := make([]store.LedgerRecord, 0)
	for rows.Next() {
		var rec store.LedgerRecord
		var source string
		var created int64
		if err := rows.Scan(&rec.ID, &rec.AccountID, &source, &rec.Ref, &rec.Delta, &rec.Before, &rec.After, &created); err != nil {
			return nil, errs.Wrap(err, "scan ledger")
		}
		rec.Source = ledger.Source(source)
		rec.CreatedAt = fromMillis(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "iterate ledger")
	}
	return out, nil
}

// InTx 以 BEGIN IMMEDIATE 開啟寫交易，fn 成功才 commit。
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "begin tx")
	}
	if err := fn(&tx{q: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return errs.Wrap(err, "commit tx")
	}
	return nil
}

type tx struct {
	q querier
}

func (t *tx) CreateAccount(ctx context.Context, a store.Account) error {
	return createAccount(ctx, t.q, a)
}

func (t *tx) GetAccount(ctx context.Context, id uuid.UUID) (store.Account, error) {
	return getAccount(ctx, t.q, id)
}

func (t *tx) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, at time.Time) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), toMillis(at), id.String(),
	)
	if err != nil {
		return errs.Wrap(err, "update balance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.WithExtra(errs.ErrNotFound, "account "+id.String())
	}
	return nil
}

func (t *tx) InsertSpins(ctx context.Context, recs ...store.SpinRecord) error {
	for _, r := range recs {
		_, err := t.q.ExecContext(ctx,
			`INSERT INTO roulette_spins (`+spinColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID.String(), r.SpinID.String(), r.AccountID.String(), r.Seq, r.Bet,
			r.Amount.String(), r.Result, boolInt(r.Won), r.Payout.String(), r.Delta.String(),
			r.BalanceAfter.String(), corefmt.EncodeBlob(r.StartSnap), toMillis(r.CreatedAt),
		)
		if err != nil {
			return errs.Wrap(err, "insert spin")
		}
	}
	return nil
}

func (t *tx) InsertLedger(ctx context.Context, recs ...store.LedgerRecord) error {
	for _, r := range recs {
		_, err := t.q.ExecContext(ctx,
			`INSERT INTO ledger_entries (id, account_id, source, ref, delta, balance_before, balance_after, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID.String(), r.AccountID.String(), string(r.Source), r.Ref,
			r.Delta.String(), r.Before.String(), r.After.String(), toMillis(r.CreatedAt),
		)
		if err != nil {
			return errs.Wrap(err, "insert ledger entry")
		}
	}
	return nil
}

func (t *tx) GetRound(ctx context.Context, accountID uuid.UUID) (store.RoundRecord, error) {
	var state string
	var settled int
	var updated int64
	err := t.q.QueryRowContext(ctx,
		`SELECT state, settled, updated_at FROM blackjack_rounds WHERE account_id = ?`,
		accountID.String(),
	).Scan(&state, &settled, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RoundRecord{}, errs.WithExtra(errs.ErrNotFound, "no blackjack round for account "+accountID.String())
	}
	if err != nil {
		return store.RoundRecord{}, errs.Wrap(err, "get round")
	}
	rec := store.RoundRecord{AccountID: accountID, Settled: settled != 0, UpdatedAt: fromMillis(updated)}
	if err := json.Unmarshal([]byte(state), &rec.Round); err != nil {
		return store.RoundRecord{}, errs.Wrap(err, "decode round state")
	}
	return rec, nil
}

// PutRound 新增或覆蓋帳戶的牌局
func (t *tx) PutRound(ctx context.Context, rec store.RoundRecord) error {
	state, err := json.Marshal(rec.Round)
	if err != nil {
		return errs.Wrap(err, "encode round state")
	}
	_, err = t.q.ExecContext(ctx,
		`INSERT INTO blackjack_rounds (account_id, round_id, state, settled, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET
		   round_id = excluded.round_id,
		   state = excluded.state,
		   settled = excluded.settled,
		   updated_at = excluded.updated_at`,
		rec.AccountID.String(), rec.Round.ID.String(), string(state), boolInt(rec.Settled), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return errs.Wrap(err, "put round")
	}
	return nil
}

// ============================================================
// ** 內部 **
// ============================================================

const spinColumns = `id, spin_id, account_id, seq, bet, amount, result, won, payout, delta, balance_after, start_snap, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSpin(row scanner) (store.SpinRecord, error) {
	var r store.SpinRecord
	var won int
	var created int64
	err := row.Scan(&r.ID, &r.SpinID, &r.AccountID, &r.Seq, &r.Bet, &r.Amount, &r.Result, &won,
		&r.Payout, &r.Delta, &r.BalanceAfter, &r.StartSnap, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, errs.Wrap(err, "scan spin")
	}
	r.Won = won != 0
	r.CreatedAt = fromMillis(created)
	return r, nil
}

func createAccount(ctx context.Context, q querier, a store.Account) error {
	if a.ID == uuid.Nil {
		return errs.NewWarn("account id is required")
	}
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" {
		return errs.NewWarn("email is required")
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (id, email, name, balance, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), email, strings.TrimSpace(a.Name), a.Balance.String(), toMillis(created), toMillis(updated),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.WithExtra(errs.ErrConflict, "email "+email+" already registered")
		}
		return errs.Wrap(err, "create account")
	}
	return nil
}

func getAccount(ctx context.Context, q querier, id uuid.UUID) (store.Account, error) {
	var a store.Account
	var created, updated int64
	err := q.QueryRowContext(ctx,
		`SELECT id, email, name, balance, created_at, updated_at FROM accounts WHERE id = ?`,
		id.String(),
	).Scan(&a.ID, &a.Email, &a.Name, &a.Balance, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Account{}, errs.WithExtra(errs.ErrNotFound, "account "+id.String())
	}
	if err != nil {
		return store.Account{}, errs.Wrap(err, "get account")
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return min(limit, MaxHistoryLimit)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
