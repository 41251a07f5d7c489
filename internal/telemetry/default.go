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

import "sync"

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, creating it from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault installs c as the process-wide client, e.g. one built from the user config.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = c
}

// Enabled reports whether the default client sends events.
func Enabled() bool { return Default().Enabled() }

// Event queues an event on the default client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// Export records an export on the default client.
func Export(e ExportEvent) { Default().Export(e) }

// UploadCrash posts a crash report through the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
