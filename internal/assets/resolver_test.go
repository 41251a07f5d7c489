/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestToEmbeddable_DataURIPassthrough(t *testing.T) {
	uri := DataURI("image/png", testPNG(t, 2, 2))
	r := NewResolver(FetcherFunc(func(context.Context, string) ([]byte, error) {
		t.Fatalf("fetcher must not be called for data URIs")
		return nil, nil
	}), nil)
	if got := r.ToEmbeddable(context.Background(), uri); got != uri {
		t.Fatalf("data URI should be returned unchanged")
	}
}

func TestToEmbeddable_HTTP(t *testing.T) {
	payload := testPNG(t, 4, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	r := NewResolver(NewHTTPFetcher(0), nil)
	got := r.ToEmbeddable(context.Background(), srv.URL+"/me.png")
	b, mime, err := DecodeDataURI(got)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(b, payload) {
		t.Fatalf("unexpected payload mime=%s len=%d", mime, len(b))
	}

	if got := r.ToEmbeddable(context.Background(), srv.URL+"/missing.png"); got != PlaceholderDataURI() {
		t.Fatalf("404 should degrade to placeholder")
	}
}

func TestToEmbeddable_FailuresDegrade(t *testing.T) {
	boom := errors.New("boom")
	r := NewResolver(FetcherFunc(func(context.Context, string) ([]byte, error) { return nil, boom }), nil)
	for _, ref := range []string{"https://example.invalid/a.png", "", "relative/path.jpg"} {
		if got := r.ToEmbeddable(context.Background(), ref); got != PlaceholderDataURI() {
			t.Fatalf("ref %q: expected placeholder", ref)
		}
	}
	notImage := NewResolver(FetcherFunc(func(context.Context, string) ([]byte, error) { return []byte("<html>"), nil }), nil)
	if got := notImage.Load(context.Background(), "x"); !IsPlaceholder(got) {
		t.Fatalf("non-image payload should degrade to placeholder")
	}
	var nilResolver *Resolver
	if got := nilResolver.ToEmbeddable(context.Background(), "x"); got != PlaceholderDataURI() {
		t.Fatalf("nil resolver should degrade to placeholder")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "avatar.png")
	payload := testPNG(t, 3, 3)
	if err := os.WriteFile(p, payload, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := NewHTTPFetcher(0)
	f.AllowFiles = true
	r := NewResolver(f, nil)
	if got := r.Load(context.Background(), p); !bytes.Equal(got, payload) {
		t.Fatalf("file load mismatch")
	}
	if got := r.Load(context.Background(), "file://"+p); !bytes.Equal(got, payload) {
		t.Fatalf("file:// load mismatch")
	}
	if got := r.Load(context.Background(), "  "); got != nil {
		t.Fatalf("empty ref should load nothing")
	}
	if got := r.Load(context.Background(), "data:image/png;base64,bm90IGEgcG5n"); !IsPlaceholder(got) {
		t.Fatalf("broken data uri should degrade")
	}
}

func TestHTTPFetcher_LocalFilesOptIn(t *testing.T) {
	p := filepath.Join(t.TempDir(), "avatar.png")
	if err := os.WriteFile(p, testPNG(t, 3, 3), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := NewHTTPFetcher(0)
	for _, ref := range []string{p, "file://" + p, "ftp://example.invalid/a.png"} {
		_, err := f.Fetch(context.Background(), ref)
		if !errors.Is(err, errLocalRef) {
			t.Fatalf("%q: expected local reference rejection, got %v", ref, err)
		}
	}
	if got := NewResolver(f, nil).Load(context.Background(), p); !IsPlaceholder(got) {
		t.Fatalf("local path should degrade to placeholder without AllowFiles")
	}
}

// hugePNG returns a PNG whose header claims w x h pixels. Only the header is
// valid, which is all DecodeConfig reads.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	b := testPNG(t, 1, 1)
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil || cfg.Width != int(w) || cfg.Height != int(h) {
		t.Fatalf("patched header: %v %+v", err, cfg)
	}
	return b
}

func TestLoadRejectsOversizedImage(t *testing.T) {
	huge := hugePNG(t, 8000, 8000)
	r := NewResolver(FetcherFunc(func(context.Context, string) ([]byte, error) { return huge, nil }), nil)
	if got := r.Load(context.Background(), DataURI("image/png", huge)); !IsPlaceholder(got) {
		t.Fatalf("oversized data uri should degrade to placeholder")
	}
	if got := r.Load(context.Background(), "https://example.invalid/huge.png"); !IsPlaceholder(got) {
		t.Fatalf("oversized fetched image should degrade to placeholder")
	}
	if got := r.ToEmbeddable(context.Background(), "https://example.invalid/huge.png"); got != PlaceholderDataURI() {
		t.Fatalf("oversized fetched image should embed as placeholder")
	}
	if got := CircleCrop(huge, 64); !bytes.Equal(got, huge) {
		t.Fatalf("CircleCrop should leave oversized input untouched")
	}
	if _, _, err := Normalize(huge); err == nil {
		t.Fatalf("Normalize should reject oversized input")
	}
}

func TestHTTPFetcher_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{1}, 64))
	}))
	defer srv.Close()
	f := NewHTTPFetcher(0)
	f.MaxBytes = 10
	_, err := f.Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) || !strings.Contains(fe.Error(), "exceeds") {
		t.Fatalf("expected size FetchError, got %v", err)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	e := &FetchError{Ref: "https://x/y", Status: 503}
	if !strings.Contains(e.Error(), "503") {
		t.Fatalf("status missing: %s", e)
	}
	cause := errors.New("dial")
	if !errors.Is(&FetchError{Ref: "r", Cause: cause}, cause) {
		t.Fatalf("Unwrap should expose cause")
	}
}

func TestPlaceholderIsTransparentPixel(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(Placeholder()))
	if err != nil {
		t.Fatalf("decode placeholder: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("placeholder is %v", b)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("placeholder not transparent")
	}
}

func TestDecodeDataURIRejects(t *testing.T) {
	for _, s := range []string{"https://x", "data:text/plain;base64,aGk=", "data:image/png,raw", "data:image/png;base64,@@"} {
		if _, _, err := DecodeDataURI(s); err == nil {
			t.Fatalf("%q should be rejected", s)
		}
	}
}
