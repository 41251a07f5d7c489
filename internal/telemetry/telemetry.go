/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous export statistics and crash reports.
// Nothing leaves the machine unless the user opted in and an endpoint is configured.
// Events never carry profile content, only format, language, page count, size and timing.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "competencematrix/internal/log"
	"competencematrix/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "CMX_TELEMETRY_OPT_IN"
	EnvEventsURL = "CMX_TELEMETRY_URL"
	EnvCrashURL  = "CMX_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "CMX_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "CMX_TELEMETRY_DEBUG"
)

const (
	defaultTimeout = 1500 * time.Millisecond
	queueSize      = 64
)

// Config holds the telemetry settings. The zero value sends nothing.
type Config struct {
	OptIn        bool
	EventsURL    string // JSON events are POSTed here
	CrashURL     string // plain text crash reports are POSTed here
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads Config from the CMX_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(EnvOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      defaultTimeout,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMs))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Client queues events and posts them from one background goroutine. Callers
// never block: when the queue is full the event is dropped. A nil *Client is
// valid and disabled.
type Client struct {
	cfg      Config
	log      *slog.Logger
	http     *http.Client
	q        chan map[string]any
	inflight atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

// New constructs a client. The sender goroutine only runs when events are enabled.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		http: &http.Client{Timeout: cfg.Timeout},
		q:    make(chan map[string]any, queueSize),
		stop: make(chan struct{}),
	}
	if c.Enabled() {
		go c.loop()
	}
	return c
}

// Enabled reports whether events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a named event. props must not contain personal data and cannot
// override the envelope fields.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := make(map[string]any, len(props)+5)
	for k, v := range props {
		payload[k] = v
	}
	payload["name"] = name
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	payload["version"] = version.String()
	payload["os"] = runtime.GOOS
	payload["arch"] = runtime.GOARCH

	select {
	case <-c.stop:
		return
	default:
	}
	c.inflight.Add(1)
	select {
	case c.q <- payload:
	default:
		c.inflight.Add(-1)
		c.debug("telemetry queue full, event dropped", slog.String("event", name))
	}
}

// ExportEvent describes one finished export.
type ExportEvent struct {
	Format   string
	Language string
	Pages    int
	Bytes    int
	Duration time.Duration
	Failed   bool
}

// Export records a finished export as an "export" event.
func (c *Client) Export(e ExportEvent) {
	c.Event("export", map[string]any{
		"format":      strings.ToLower(e.Format),
		"lang":        e.Language,
		"pages":       e.Pages,
		"bytes":       e.Bytes,
		"duration_ms": e.Duration.Milliseconds(),
		"failed":      e.Failed,
	})
}

// Flush waits until queued events are sent or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for c.inflight.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-t.C:
		}
	}
}

// Close stops the sender; events still queued are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.stop:
			return
		case ev := <-c.q:
			c.send(ev)
			c.inflight.Add(-1)
		}
	}
}

func (c *Client) send(ev map[string]any) {
	buf, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.post(context.Background(), c.cfg.EventsURL, "application/json", buf); err != nil {
		c.debug("telemetry send failed", slog.Any("err", err))
		return
	}
	c.debug("telemetry event sent", slog.Any("event", ev["name"]))
}

// UploadCrash posts a crash report when the user opted in and a crash URL is set.
// It blocks until the upload finishes or the client timeout expires, since the
// process exits right after.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	if err := c.post(context.Background(), c.cfg.CrashURL, "text/plain; charset=utf-8", report); err != nil {
		c.debug("crash upload failed", slog.Any("err", err))
		return
	}
	c.debug("crash report uploaded", slog.Int("bytes", len(report)))
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "cvexport/"+version.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) debug(msg string, attrs ...any) {
	if c.cfg.DebugLogging {
		c.log.Debug(msg, attrs...)
	}
}
