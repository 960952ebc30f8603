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


package storage

import (
	"context"
	"time"

	"github.com/poiesic/copilot/core"
)

// SummaryStore persists page summaries keyed by URL so repeated extraction
// of the same page can be skipped across process restarts.
type SummaryStore interface {
	// GetSummary retrieves the summary stored for url.
	// Returns ErrNotFound if no live summary exists.
	GetSummary(ctx context.Context, url string) (*core.Summary, error)

	// PutSummary stores summary under its URL, replacing any previous entry.
	// A positive ttl expires the entry; zero keeps it until deleted.
	// Sets CreatedAt if not already set.
	PutSummary(ctx context.Context, summary *core.Summary, ttl time.Duration) error

	// DeleteSummary removes the summary for url.
	// Returns ErrNotFound if it doesn't exist.
	DeleteSummary(ctx context.Context, url string) error

	// Purge removes every stored summary and returns nil on success.
	Purge(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
