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
	"errors"
	"os"
	"testing"
	"time"
)

// Runs against a real Postgres only when CMX_TEST_PG_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CMX_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("CMX_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	s, err := Open(ctx, DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	id := "pg-test-" + time.Now().Format("150405.000000")
	defer func() { _ = s.Delete(context.Background(), id) }()
	ch, stop := s.Subscribe(id)
	defer stop()

	if _, err := s.Put(ctx, id, testProfile()); err != nil {
		t.Fatalf("put: %v", err)
	}
	doc, err := s.Put(ctx, id, testProfile())
	if err != nil || doc.Version != 2 {
		t.Fatalf("second put: %+v, %v", doc, err)
	}
	if c := <-ch; c.Version != 2 {
		t.Fatalf("expected latest change, got %+v", c)
	}
	got, err := s.Get(ctx, id)
	if err != nil || got.Profile.DisplayName != "Anna Berg" {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
