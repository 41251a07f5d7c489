/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	events  []map[string]any
	crashes []string
}

func (rec *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		rec.mu.Lock()
		rec.events = append(rec.events, m)
		rec.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.crashes = append(rec.crashes, string(b))
		rec.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSendsEventsAndCrashReports(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()

	c.Event("started", map[string]any{"k": "v", "name": "spoofed"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	rec.mu.Lock()
	if len(rec.events) != 1 {
		rec.mu.Unlock()
		t.Fatalf("expected one event after flush, got %d", len(rec.events))
	}
	m := rec.events[0]
	rec.mu.Unlock()
	if m["name"] != "started" || m["k"] != "v" {
		t.Fatalf("unexpected event: %v", m)
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts field: %v", m)
	}

	c.UploadCrash([]byte("STACKTRACE"))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.crashes) != 1 || rec.crashes[0] != "STACKTRACE" {
		t.Fatalf("crash upload should finish before returning: %v", rec.crashes)
	}
}

func TestExportEventPayload(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	defer c.Close()

	c.Export(ExportEvent{Format: "PDF", Language: "sv", Pages: 4, Bytes: 1234, Duration: 1500 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 {
		t.Fatalf("export event not sent")
	}
	m := rec.events[0]
	if m["name"] != "export" || m["format"] != "pdf" || m["lang"] != "sv" || m["pages"] != float64(4) ||
		m["bytes"] != float64(1234) || m["duration_ms"] != float64(1500) || m["failed"] != false {
		t.Fatalf("unexpected payload: %v", m)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	off := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL})
	defer off.Close()
	if off.Enabled() {
		t.Fatalf("expected disabled client")
	}
	off.Event("ignored", nil)
	off.Export(ExportEvent{Format: "DOCX"})
	off.UploadCrash([]byte("ignored"))
	off.Flush(context.Background())

	on := New(Config{OptIn: true, EventsURL: srv.URL})
	defer on.Close()
	on.Event("", nil)
	on.Flush(context.Background())

	var nilClient *Client
	nilClient.Export(ExportEvent{Format: "PDF"})
	nilClient.Flush(context.Background())
	nilClient.Close()

	if hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", hits.Load())
	}
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL})
	c.Close()
	c.Close()
	c.Event("late", nil)
	c.Flush(context.Background())
	if hits.Load() != 0 {
		t.Fatalf("closed client sent %d events", hits.Load())
	}
}

func TestSendErrorsAreSwallowed(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	defer c.Close()
	c.Event("err", map[string]any{"a": 1})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Flush(ctx)
	c.UploadCrash([]byte("oops"))
}

func TestFromEnvAndDefault(t *testing.T) {
	t.Setenv(EnvOptIn, "yes")
	t.Setenv(EnvEventsURL, " http://127.0.0.1:0 ")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMs, "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://127.0.0.1:0" || cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("FromEnv did not parse correctly: %+v", cfg)
	}
	t.Setenv(EnvTimeoutMs, "soon")
	if FromEnv().Timeout != defaultTimeout {
		t.Fatalf("invalid timeout should fall back to the default")
	}

	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })
	c := New(cfg)
	defer c.Close()
	SetDefault(c)
	if !Enabled() || Default() != c {
		t.Fatalf("SetDefault did not install the client")
	}
}
