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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/zintix-labs/tablelab/errs"
)

const (
	migrationTable = "schema_migrations"
	markUp         = "-- +migrate Up"
	markDown       = "-- +migrate Down"
)

// applyMigrations 依檔名順序執行 migrationFS 根目錄下的 .sql，每個檔案最多執行一次、各自一個交易。
func applyMigrations(ctx context.Context, db *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return errs.Wrap(err, "read migrations dir")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return errs.Wrap(err, "ensure migration table")
	}

	for _, name := range files {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return errs.Wrap(err, "check migration "+name)
		}
		if applied {
			continue
		}
		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return errs.Wrap(err, "read migration "+name)
		}
		up := extractUp(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errs.Wrap(err, "begin migration "+name)
		}
		if _, err := tx.ExecContext(ctx, up); err != nil && !isAlreadyExists(err) {
			_ = tx.Rollback()
			return errs.Wrap(err, "exec migration "+name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			name, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return errs.Wrap(err, "record migration "+name)
		}
		if err := tx.Commit(); err != nil {
			return errs.Wrap(err, "commit migration "+name)
		}
	}
	return nil
}

// extractUp 取出 Up 區段；沒有標記時整個檔案都是 Up。
func extractUp(content string) string {
	i := strings.Index(content, markUp)
	if i == -1 {
		return content
	}
	rest := content[i+len(markUp):]
	if j := strings.Index(rest, markDown); j != -1 {
		return rest[:j]
	}
	return rest
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
