/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report file and a non-zero exit.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"competencematrix/internal/domain"
	applog "competencematrix/internal/log"
	"competencematrix/internal/storage"
	"competencematrix/internal/telemetry"
	"competencematrix/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Context describes what the process was working on. The CLI fills it as it goes so a
// crash report can name the input and keep a copy of the profile being exported.
type Context struct {
	mu      sync.Mutex
	Dir     string // report directory; empty means os.TempDir()
	Command string
	Source  string
	profile *domain.Profile
}

// SetProfile records the profile currently being processed.
func (c *Context) SetProfile(source string, p domain.Profile) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Source = source
	c.profile = &p
}

func (c *Context) snapshot() (dir, command, source string, p *domain.Profile) {
	if c == nil {
		return "", "", "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Dir, c.Command, c.Source, c.profile
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and saves the profile being processed next to it.
//
// Usage: defer crash.Recover(&crashCtx)
func Recover(c *Context) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(c, r, stack)
		if err != nil {
			l.Error("write crash report failed", slog.Any("err", err))
		}
		if _, _, _, p := c.snapshot(); p != nil {
			path := profileSnapshotPath(reportPath)
			if err := storage.SaveProfileFile(path, *p); err != nil {
				l.Error("profile snapshot failed", slog.Any("err", err))
			} else {
				l.Info("profile snapshot written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// profileSnapshotPath maps crash-<stamp>.log to crash-<stamp>.profile.json.
func profileSnapshotPath(reportPath string) string {
	return reportPath[:len(reportPath)-len(filepath.Ext(reportPath))] + ".profile.json"
}

func writeReport(c *Context, panicVal any, stack []byte) (string, error) {
	dir, command, source, p := c.snapshot()
	if dir == "" {
		dir = os.TempDir()
	}
	_ = os.MkdirAll(dir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "CV Export Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if command != "" {
		_, _ = fmt.Fprintf(&buf, "Command: %s\n", command)
	}
	if source != "" {
		_, _ = fmt.Fprintf(&buf, "Profile: %s\n", source)
	}
	if p != nil {
		_, _ = fmt.Fprintf(&buf, "Profile snapshot: %s\n", filepath.Base(profileSnapshotPath(path)))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}

	// uploaded only with telemetry opt-in; the profile snapshot stays local
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
