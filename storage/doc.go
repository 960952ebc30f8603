// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage defines the persistence abstraction for page summaries.
//
// Extraction condenses fetched pages into summaries. Those summaries are
// expensive to produce (a page download plus a model call) and rarely
// change, so they can be archived beyond the lifetime of the in-memory
// document cache.
//
// # Constructor Return Type Pattern
//
// Public constructors return the SummaryStore interface:
//
//	store, err := badger.NewSummaryStore(backend)  // returns storage.SummaryStore
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/archive", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := badger.NewSummaryStore(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemorySummaryStore()
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
