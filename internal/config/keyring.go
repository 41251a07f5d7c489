/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService = "CVExport"
	keyringToken   = "backend_token"
)

// ErrNoToken is returned when no backend token has been stored.
var ErrNoToken = errors.New("no backend token stored")

// Indirection so tests can swap the keyring (keyring.MockInit also works).
var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// LoadToken returns the backend token from the OS keyring.
func LoadToken() (string, error) {
	tok, err := keyringGet(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	return tok, err
}

// SaveToken stores the backend token in the OS keyring.
func SaveToken(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	return keyringSet(keyringService, keyringToken, token)
}

// DeleteToken removes the backend token; a missing token is not an error.
func DeleteToken() error {
	if err := keyringDelete(keyringService, keyringToken); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
