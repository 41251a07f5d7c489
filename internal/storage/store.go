/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"competencematrix/internal/domain"
	applog "competencematrix/internal/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Driver selects the database behind a SQLStore.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "pgx"
)

// ParseDriver accepts the configured driver names ("sqlite", "pgx", "postgres").
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unknown store driver %q", s)
}

func (d Driver) migrationsDir() string {
	if d == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $n for Postgres.
func (d Driver) rebind(q string) string {
	if d != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Document is a stored profile with its revision.
type Document struct {
	ID        string
	Profile   domain.Profile
	Version   int64
	UpdatedAt time.Time
}

// Summary is one row of List.
type Summary struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentStore is a key-value store of profile documents with change notification.
type DocumentStore interface {
	Get(ctx context.Context, id string) (Document, error)
	Put(ctx context.Context, id string, p domain.Profile) (Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Summary, error)
	Subscribe(id string) (<-chan Change, func())
	Close() error
}

// SQLStore implements DocumentStore on database/sql.
type SQLStore struct {
	db     *sql.DB
	driver Driver
	hub    *hub
	log    *slog.Logger
	now    func() time.Time
}

var _ DocumentStore = (*SQLStore)(nil)

// SQLiteDSN builds the DSN used for a SQLite database file.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
}

// Open connects to the store, enables WAL for SQLite and applies migrations.
// For SQLite, dsn may be a plain file path.
func Open(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("driver", string(driver)))
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store dsn is required")
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
			dsn = SQLiteDSN(dsn)
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Single writer for embedded usage.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			l.Error("enable WAL failed", slog.Any("err", err))
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}

	v, err := migrate(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("store ready", slog.Int64("schema", v))
	return &SQLStore{db: db, driver: driver, hub: newHub(), log: l, now: time.Now}, nil
}

// Close closes the database and every subscription channel.
func (s *SQLStore) Close() error {
	s.hub.close()
	return s.db.Close()
}

// Get returns the document stored under id or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id string) (Document, error) {
	var (
		data, updated string
		doc           = Document{ID: id}
	)
	err := s.db.QueryRowContext(ctx, s.driver.rebind(`SELECT data, version, updated_at FROM documents WHERE id = ?`), id).
		Scan(&data, &doc.Version, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", id, err)
	}
	if doc.Profile, err = DecodeProfile([]byte(data)); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", id, err)
	}
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return doc, nil
}

// Put stores p under id, bumping its version, and notifies subscribers.
func (s *SQLStore) Put(ctx context.Context, id string, p domain.Profile) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, errors.New("document id is required")
	}
	data, err := EncodeProfile(p)
	if err != nil {
		return Document{}, err
	}
	if err := ValidateProfileJSON(data); err != nil {
		return Document{}, err
	}
	now := s.now().UTC()
	doc := Document{ID: id, Profile: p, UpdatedAt: now}
	err = s.db.QueryRowContext(ctx, s.driver.rebind(`INSERT INTO documents (id, display_name, data, version, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			data = excluded.data,
			version = documents.version + 1,
			updated_at = excluded.updated_at
		RETURNING version`), id, strings.TrimSpace(p.DisplayName), string(data), now.Format(time.RFC3339Nano)).Scan(&doc.Version)
	if err != nil {
		return Document{}, fmt.Errorf("put %s: %w", id, err)
	}
	s.log.Debug("document stored", slog.String("id", id), slog.Int64("version", doc.Version))
	s.hub.publish(Change{ID: id, Kind: ChangePut, Version: doc.Version})
	return doc, nil
}

// Delete removes the document or returns ErrNotFound.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.driver.rebind(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.hub.publish(Change{ID: id, Kind: ChangeDelete})
	return nil
}

// List returns all documents ordered by id.
func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, version, updated_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.DisplayName, &sum.Version, &updated); err != nil {
			return nil, err
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Subscribe returns a channel receiving changes to id ("" for every document) and a
// cancel func closing it. Slow subscribers only see the latest change.
func (s *SQLStore) Subscribe(id string) (<-chan Change, func()) {
	return s.hub.subscribe(id)
}
