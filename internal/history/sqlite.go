/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	applog "mangastudio/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// StoreDirName holds the app's local data under the user state dir.
	StoreDirName  = ".mangastudio"
	StoreFileName = "history.sqlite"

	// DefaultQuotaBytes mirrors the ballpark of a browser origin's local
	// storage allotment.
	DefaultQuotaBytes = 5 * 1024 * 1024
)

// SQLiteKV is a KVStore backed by an embedded SQLite database. Values are
// stored whole per key; a byte quota over keys plus values is enforced on
// every write.
type SQLiteKV struct {
	db    *sql.DB
	quota int64
}

// StorePath returns the full path of the history database under root.
func StorePath(root string) string {
	return filepath.Join(root, StoreDirName, StoreFileName)
}

// QuotaFromEnv reads MGS_HISTORY_MAX_BYTES, defaulting to DefaultQuotaBytes
// when unset or invalid.
func QuotaFromEnv() int64 {
	v := os.Getenv("MGS_HISTORY_MAX_BYTES")
	if v == "" {
		return DefaultQuotaBytes
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return DefaultQuotaBytes
	}
	return n
}

// OpenSQLiteKV creates or opens the history database at root, enables WAL
// mode, and ensures the schema exists. quotaBytes <= 0 disables the quota.
func OpenSQLiteKV(root string, quotaBytes int64) (*SQLiteKV, error) {
	l := applog.WithOperation(applog.WithComponent("history"), "kv_open").With(
		slog.String("root", root),
	)
	if root == "" {
		return nil, errors.New("store root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, StoreDirName), 0o755); err != nil {
		l.Error("create store dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	path := StorePath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection is enough for an embedded per-user store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		size       INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		l.Error("ensure kv table failed", slog.Any("err", err))
		return nil, fmt.Errorf("ensure kv table: %w", err)
	}

	l.Info("history store ready", slog.String("path", path), slog.Int64("quota", quotaBytes))
	return &SQLiteKV{db: db, quota: quotaBytes}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteKV) Close() error { return s.db.Close() }

// Get returns the stored value for key.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query kv: %w", err)
	}
	return string(blob), true, nil
}

// Set upserts the value after checking it fits the quota. The check counts
// key and value bytes across all rows, with the row being replaced counted
// at its new size.
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	size := int64(len(key) + len(value))
	if s.quota > 0 {
		var others int64
		err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(size),0) FROM kv WHERE key<>?`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("sum kv size: %w", err)
		}
		if others+size > s.quota {
			return fmt.Errorf("%w: %d+%d bytes over %d", ErrQuotaExceeded, others, size, s.quota)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `INSERT INTO kv(key,value,size,updated_at) VALUES(?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, size=excluded.size, updated_at=excluded.updated_at`,
		key, []byte(value), size, now)
	if err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}
	return nil
}

// Delete removes the key if present.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, key); err != nil {
		return fmt.Errorf("delete kv: %w", err)
	}
	return nil
}

// TotalBytes reports the tracked size of all rows.
func (s *SQLiteKV) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM kv`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum kv size: %w", err)
	}
	return total, nil
}
