/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import "sync"

// ChangeKind tells subscribers what happened to a document.
type ChangeKind string

const (
	ChangePut    ChangeKind = "put"
	ChangeDelete ChangeKind = "delete"
)

// Change is delivered to subscribers after a successful write.
type Change struct {
	ID      string
	Kind    ChangeKind
	Version int64
}

// hub fans changes out to in-process subscribers. Each subscriber has a one-slot
// buffer holding the most recent undelivered change; publishers never block.
type hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]subscriber
	closed bool
}

type subscriber struct {
	id string // "" receives every document
	ch chan Change
}

func newHub() *hub { return &hub{subs: map[int]subscriber{}} }

func (h *hub) subscribe(id string) (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Change, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	key := h.next
	h.next++
	h.subs[key] = subscriber{id: id, ch: ch}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[key]; ok {
				delete(h.subs, key)
				close(s.ch)
			}
		})
	}
}

func (h *hub) publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if s.id != "" && s.id != c.ID {
			continue
		}
		select {
		case s.ch <- c:
		default:
			// latest wins
			select {
			case <-s.ch:
			default:
			}
			s.ch <- c
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for k, s := range h.subs {
		close(s.ch)
		delete(h.subs, k)
	}
}
