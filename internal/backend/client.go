/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"competencematrix/internal/domain"
	"competencematrix/internal/storage"
)

// maxBodyBytes bounds a single profile response.
const maxBodyBytes = 8 << 20

// Client is a minimal HTTP client for the managed backend's profile documents.
// It is read-only; profiles are pulled and then exported or stored locally.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is maps 404 to storage.ErrNotFound so callers can treat local and remote lookups alike.
func (e *StatusError) Is(target error) bool {
	return target == storage.ErrNotFound && e.Status == http.StatusNotFound
}

// ErrUnauthorized is returned for 401/403 responses.
var ErrUnauthorized = errors.New("backend rejected the token")

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, errors.New("backend base url is not configured")
	}
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{Method: http.MethodGet, Path: u.Path, Status: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// ProfileRef is a minimal projection for listing.
type ProfileRef struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListProfiles returns the profiles visible to the token.
func (c *Client) ListProfiles(ctx context.Context) ([]ProfileRef, error) {
	b, err := c.get(ctx, "/api/profiles")
	if err != nil {
		return nil, err
	}
	var list []ProfileRef
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode profile list: %w", err)
	}
	return list, nil
}

// GetProfile fetches one profile document and validates it against the profile schema.
func (c *Client) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	b, err := c.get(ctx, "/api/profiles/"+url.PathEscape(id))
	if err != nil {
		return domain.Profile{}, err
	}
	return storage.DecodeProfile(b)
}
