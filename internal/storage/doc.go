/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists profile documents.
// Profile files are JSON, validated against an embedded schema, and written transactionally with
// timestamped backups of the previous file.
// The document store keeps profiles by id in SQLite (default, WAL mode) or Postgres and notifies
// in-process subscribers after every successful write.
package storage
