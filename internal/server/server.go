/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes the exporters over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"competencematrix/internal/domain"
	"competencematrix/internal/export"
	applog "competencematrix/internal/log"
	"competencematrix/internal/storage"
	"competencematrix/internal/telemetry"
	"competencematrix/internal/version"
)

// MaxRequestBytes bounds an export request body (profiles may carry a data URI avatar).
const MaxRequestBytes = 16 << 20

// Server serves export requests. Store is optional; without it only inline
// profiles can be exported.
type Server struct {
	store   storage.DocumentStore
	opts    []export.Option
	log     *slog.Logger
	metrics *telemetry.Client
}

// New returns a server exporting with the given exporter options.
func New(store storage.DocumentStore, logger *slog.Logger, opts ...export.Option) *Server {
	if logger == nil {
		logger = applog.WithComponent("server")
	}
	return &Server{store: store, opts: append(opts, export.WithLogger(logger)), log: logger}
}

// WithTelemetry reports finished exports to c.
func (s *Server) WithTelemetry(c *telemetry.Client) *Server {
	s.metrics = c
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/api/export", s.handleExport).Methods(http.MethodPost)
	r.HandleFunc("/api/profiles", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/profiles/{id}/export", s.handleExportStored).Methods(http.MethodGet)
	return withRequestLogging(s.log, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": version.String()})
}

// exportRequest is the body of POST /api/export. Format may also be given as ?format=.
type exportRequest struct {
	Format   string          `json:"format"`
	Language string          `json:"language"`
	Profile  json.RawMessage `json:"profile"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	var req exportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Profile) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("profile is required"))
		return
	}
	p, err := storage.DecodeProfile(req.Profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := req.Format
	if q := r.URL.Query().Get("format"); q != "" {
		format = q
	}
	lang := req.Language
	if q := r.URL.Query().Get("lang"); q != "" {
		lang = q
	}
	s.export(w, r, p, format, lang)
}

func (s *Server) handleExportStored(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("no profile store configured"))
		return
	}
	id := mux.Vars(r)["id"]
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	q := r.URL.Query()
	s.export(w, r, doc.Profile, q.Get("format"), q.Get("lang"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []storage.Summary{})
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, p domain.Profile, format, lang string) {
	if format == "" {
		format = string(export.FormatPDF)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ex, err := export.NewExporter(f, s.opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	doc, err := ex.Generate(r.Context(), domain.ExportData{Profile: p, Language: lang})
	if err != nil {
		s.metrics.Export(telemetry.ExportEvent{Format: string(f), Language: lang, Failed: true})
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.Export(telemetry.ExportEvent{Format: string(f), Language: lang, Pages: doc.Pages, Bytes: len(doc.Data), Duration: time.Since(start)})

	h := w.Header()
	h.Set("Content-Type", doc.MIMEType)
	h.Set("Content-Disposition", contentDisposition(doc.Filename))
	h.Set("Content-Length", strconv.Itoa(len(doc.Data)))
	if doc.Pages > 0 {
		h.Set("X-Page-Count", strconv.Itoa(doc.Pages))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func contentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		strings.ReplaceAll(filename, `"`, ""), url.PathEscape(filename))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func withRequestLogging(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		ctx := applog.ContextWith(r.Context(), slog.String("method", r.Method), slog.String("path", r.URL.Path))
		next.ServeHTTP(rec, r.WithContext(ctx))
		l.InfoContext(ctx, "request",
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("took", time.Since(start)))
	})
}
