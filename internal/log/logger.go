/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log sets up the process-wide slog logger: a compact console line or
// JSON on stderr, an optional rotating JSON file, and attributes carried on the
// context (request, export format and language) appended to every record.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"competencematrix/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// AppName is attached to every record as the "app" attribute.
const AppName = "cvexport"

// Environment variables read by FromEnv.
const (
	EnvLevel  = "CMX_LOG_LEVEL"
	EnvFormat = "CMX_LOG_FORMAT"
	EnvFile   = "CMX_LOG_FILE"
	EnvSource = "CMX_LOG_SOURCE"
)

// Rotation limits of the log file.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Options controls logger initialization. Defaults: info level, console format, no source.
type Options struct {
	Level     string // debug | info | warn | error
	Format    string // console | json
	AddSource bool
	File      string // rotated JSON log file; empty disables it
	// Console receives the console or JSON stream; nil means os.Stderr.
	Console io.Writer
}

var current atomic.Pointer[slog.Logger]

// L returns the application logger, initializing it from the environment on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init builds the logger for opts and installs it as L() and slog.Default().
func Init(opts Options) {
	l := New(opts)
	current.Store(l)
	slog.SetDefault(l)
}

// New builds a logger for opts without installing it.
func New(opts Options) *slog.Logger {
	lvl := ParseLevel(opts.Level)
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var hs []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		hs = append(hs, slog.NewJSONHandler(out, hopts))
	} else {
		hs = append(hs, newConsoleHandler(out, lvl, opts.AddSource))
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: fileMaxSizeMB, MaxBackups: fileMaxBackups, MaxAge: fileMaxAgeDays, Compress: true}
		hs = append(hs, slog.NewJSONHandler(rot, hopts))
	}

	return slog.New(withContextAttrs(fanout(hs...))).With(
		slog.String("app", AppName),
		slog.String("ver", version.Version),
	)
}

// FromEnv builds Options from the CMX_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     envOr(EnvLevel, "info"),
		Format:    envOr(EnvFormat, "console"),
		AddSource: strings.EqualFold(os.Getenv(EnvSource), "true") || os.Getenv(EnvSource) == "1",
		File:      os.Getenv(EnvFile),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ParseLevel maps a level name to a slog level; unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// Discard returns a logger that drops everything.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }
