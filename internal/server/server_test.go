/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"competencematrix/internal/assets"
	"competencematrix/internal/domain"
	"competencematrix/internal/export"
	applog "competencematrix/internal/log"
	"competencematrix/internal/storage"
)

func offlineResolver() *assets.Resolver {
	return assets.NewResolver(assets.FetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("offline")
	}), nil)
}

func newTestServer(t *testing.T, store storage.DocumentStore) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(store, applog.Discard(), export.WithResolver(offlineResolver())).Handler())
	t.Cleanup(srv.Close)
	return srv
}

const profileJSON = `{"displayName":"John O'Brien / Smith","competences":[{"name":"Go","level":4}],"experiences":[{"title":"Dev","employer":"Acme","startYear":2020,"ongoing":true}]}`

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestExportPDF(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/export", `{"format":"pdf","language":"sv","profile":`+profileJSON+`}`)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, b)
	}
	if ct := resp.Header.Get("Content-Type"); ct != export.MIMEPDF {
		t.Fatalf("content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="John OBrien Smith - CV.pdf"`) {
		t.Fatalf("content disposition %q", cd)
	}
	if resp.Header.Get("X-Page-Count") != "4" {
		t.Fatalf("page count header %q", resp.Header.Get("X-Page-Count"))
	}
	b, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("body is not a pdf")
	}
}

func TestExportIgnoresLocalAvatarPath(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 40))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "secret.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	resolver := assets.NewResolver(assets.NewHTTPFetcher(time.Second), nil)
	srv := httptest.NewServer(New(nil, applog.Discard(), export.WithResolver(resolver)).Handler())
	t.Cleanup(srv.Close)

	exportWith := func(avatar string) []byte {
		t.Helper()
		ref, _ := json.Marshal(avatar)
		resp := post(t, srv.URL+"/api/export", `{"profile":{"displayName":"A","avatar":`+string(ref)+`}}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("avatar %q: status %d", avatar, resp.StatusCode)
		}
		b, _ := io.ReadAll(resp.Body)
		return b
	}
	xobject := []byte("/Subtype /Image")
	for _, ref := range []string{path, "file://" + path} {
		if b := exportWith(ref); bytes.Contains(b, xobject) {
			t.Fatalf("%q: server embedded a local file", ref)
		}
	}
	if b := exportWith(assets.DataURI("image/png", buf.Bytes())); !bytes.Contains(b, xobject) {
		t.Fatalf("data uri avatar should still be embedded")
	}
}

func TestExportDOCXViaQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/export?format=DOCX", `{"profile":`+profileJSON+`}`)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != export.MIMEDOCX {
		t.Fatalf("status %d, type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	b, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(b, []byte("PK")) {
		t.Fatalf("body is not a zip package")
	}
}

func TestExportRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, nil)
	cases := map[string]string{
		"unsupported format": `{"format":"odt","profile":` + profileJSON + `}`,
		"invalid profile":    `{"profile":{"displayName":"A","competences":[{"name":"Go","level":7}]}}`,
		"missing profile":    `{"format":"pdf"}`,
		"not json":           `{`,
	}
	for name, body := range cases {
		resp := post(t, srv.URL+"/api/export", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d", name, resp.StatusCode)
		}
		var e map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e["error"] == "" {
			t.Fatalf("%s: expected json error body", name)
		}
	}
	resp, err := http.Get(srv.URL + "/api/export")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/export status %d", resp.StatusCode)
	}
}

func TestExportStoredProfile(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "profiles.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.Put(ctx, "anna", domain.Profile{DisplayName: "Anna Berg"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/api/profiles/anna/export?format=docx&lang=sv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Disposition"), "Anna Berg - CV.docx") {
		t.Fatalf("status %d, disposition %q", resp.StatusCode, resp.Header.Get("Content-Disposition"))
	}

	resp, err = http.Get(srv.URL + "/api/profiles/nobody/export")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing profile status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/profiles")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var list []storage.Summary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil || len(list) != 1 || list[0].ID != "anna" {
		t.Fatalf("list: %+v, %v", list, err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/version", "/api/profiles"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}
