/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets turns image references (data URIs, http(s) URLs, file paths)
// into self-contained image bytes that can be embedded in a document.
// Resolution never fails: anything that cannot be loaded becomes a 1x1
// transparent placeholder.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	// extra decoders for avatar uploads
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultMaxBytes caps a single fetched image.
const DefaultMaxBytes = 10 << 20

// MaxPixels caps the decoded size of an image. Larger images are replaced by
// the placeholder before any pixel buffer is allocated.
const MaxPixels = 40_000_000

var errLocalRef = errors.New("local file references are disabled")

// FetchError describes why an image reference could not be loaded.
// It is logged by the Resolver and never returned to exporters.
type FetchError struct {
	Ref    string
	Status int
	Cause  error
}

func (e *FetchError) Error() string {
	ref := e.Ref
	if len(ref) > 80 {
		ref = ref[:80] + "..."
	}
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", ref, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", ref, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Fetcher loads the raw bytes behind a non-embedded reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) { return f(ctx, ref) }

// HTTPFetcher fetches http(s) URLs. Local paths and file:// URLs are read only
// when AllowFiles is set; every other reference is rejected.
type HTTPFetcher struct {
	Client     *http.Client
	UserAgent  string
	MaxBytes   int64
	AllowFiles bool
}

// NewHTTPFetcher returns a fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}, MaxBytes: DefaultMaxBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if !isHTTP(ref) {
		if !f.AllowFiles {
			return nil, &FetchError{Ref: ref, Cause: errLocalRef}
		}
		path := strings.TrimPrefix(ref, "file://")
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &FetchError{Ref: ref, Cause: err}
		}
		if int64(len(b)) > limit {
			return nil, &FetchError{Ref: ref, Cause: fmt.Errorf("file exceeds %d bytes", limit)}
		}
		return b, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, &FetchError{Ref: ref, Cause: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Ref: ref, Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Ref: ref, Status: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &FetchError{Ref: ref, Cause: err}
	}
	if int64(len(b)) > limit {
		return nil, &FetchError{Ref: ref, Cause: fmt.Errorf("body exceeds %d bytes", limit)}
	}
	return b, nil
}

func isHTTP(ref string) bool {
	l := strings.ToLower(ref)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

var placeholderPNG = mustPlaceholder()

func mustPlaceholder() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Placeholder returns a copy of the 1x1 transparent PNG used for unresolvable images.
func Placeholder() []byte { return append([]byte(nil), placeholderPNG...) }

// PlaceholderDataURI is Placeholder encoded as a data URI.
func PlaceholderDataURI() string { return DataURI("image/png", placeholderPNG) }

// IsPlaceholder reports whether b is the placeholder image.
func IsPlaceholder(b []byte) bool { return bytes.Equal(b, placeholderPNG) }

// DataURI encodes b as a base64 data URI.
func DataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// IsEmbeddable reports whether ref is already self-contained (a base64 image data URI).
func IsEmbeddable(ref string) bool {
	_, _, err := DecodeDataURI(ref)
	return err == nil
}

var errNotDataURI = errors.New("not a base64 image data URI")

// DecodeDataURI splits a "data:image/...;base64,..." URI into bytes and MIME type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", errNotDataURI
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", errNotDataURI
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", errNotDataURI
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data uri: %w", err)
	}
	return b, mime, nil
}

// Resolver converts image references to embeddable form.
type Resolver struct {
	Fetcher Fetcher
	Logger  *slog.Logger
}

// NewResolver returns a Resolver backed by f; a nil logger discards diagnostics.
func NewResolver(f Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{Fetcher: f, Logger: logger}
}

// ToEmbeddable returns ref unchanged when it is already a data URI and otherwise
// fetches it and returns a data URI. Every failure yields PlaceholderDataURI.
func (r *Resolver) ToEmbeddable(ctx context.Context, ref string) string {
	if IsEmbeddable(ref) {
		return ref
	}
	b, mime, err := r.fetchImage(ctx, ref)
	if err != nil {
		r.warn(ctx, ref, err)
		return PlaceholderDataURI()
	}
	return DataURI(mime, b)
}

// Load is ToEmbeddable returning decoded bytes instead of a URI. An empty ref yields nil.
func (r *Resolver) Load(ctx context.Context, ref string) []byte {
	if strings.TrimSpace(ref) == "" {
		return nil
	}
	if b, _, err := DecodeDataURI(ref); err == nil {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
		if err == nil {
			err = checkPixels(cfg)
		}
		if err == nil {
			return b
		}
		r.warn(ctx, "data uri", err)
		return Placeholder()
	}
	b, _, err := r.fetchImage(ctx, ref)
	if err != nil {
		r.warn(ctx, ref, err)
		return Placeholder()
	}
	return b
}

func (r *Resolver) fetchImage(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, "", &FetchError{Ref: ref, Cause: errors.New("empty reference")}
	}
	if r == nil || r.Fetcher == nil {
		return nil, "", &FetchError{Ref: ref, Cause: errors.New("no fetcher configured")}
	}
	b, err := r.Fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, "", &FetchError{Ref: ref, Cause: fmt.Errorf("not an image: %w", err)}
	}
	if err := checkPixels(cfg); err != nil {
		return nil, "", &FetchError{Ref: ref, Cause: err}
	}
	return b, "image/" + format, nil
}

func checkPixels(cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}

func (r *Resolver) warn(ctx context.Context, ref string, err error) {
	if r == nil || r.Logger == nil {
		return
	}
	if len(ref) > 80 {
		ref = ref[:80] + "..."
	}
	r.Logger.WarnContext(ctx, "image replaced by placeholder", slog.String("ref", ref), slog.Any("err", err))
}
