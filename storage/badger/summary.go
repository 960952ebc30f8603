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


package badger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/copilot/core"
	"github.com/poiesic/copilot/storage"
)

// SummaryStore implements storage.SummaryStore on a Badger backend.
type SummaryStore struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.SummaryStore = (*SummaryStore)(nil)

// NewSummaryStore creates a summary store on top of backend.
// The caller remains responsible for closing backend.
func NewSummaryStore(backend *Backend) (storage.SummaryStore, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return newSummaryStore(backend, false), nil
}

func newSummaryStore(backend *Backend, owns bool) *SummaryStore {
	return &SummaryStore{
		backend:     backend,
		ownsBackend: owns,
		logger:      slog.Default().With("component", "summary-store"),
	}
}

// GetSummary retrieves the summary stored for url.
func (s *SummaryStore) GetSummary(ctx context.Context, url string) (*core.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(url))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	summary, err := storage.UnmarshalSummary(data)
	if err != nil {
		s.logger.Warn("discarding unreadable summary", "url", url, "err", err)
		return nil, err
	}
	return summary, nil
}

// PutSummary stores summary under its URL.
func (s *SummaryStore) PutSummary(ctx context.Context, summary *core.Summary, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if summary == nil || summary.URL == "" {
		return storage.ErrInvalidRecord
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	entry := badger.NewEntry(makeSummaryKey(summary.URL), storage.MarshalSummary(summary))
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		return tx.SetEntry(entry)
	}, true)
}

// DeleteSummary removes the summary for url.
func (s *SummaryStore) DeleteSummary(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := makeSummaryKey(url)
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return tx.Delete(key)
	}, true)
}

// Purge removes every stored summary.
func (s *SummaryStore) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.DropPrefix(summaryKeyPrefix()); err != nil {
		return err
	}
	if _, err := s.backend.CollectGarbage(); err != nil {
		s.logger.Warn("value log gc failed", "err", err)
	}
	return nil
}

// Close releases the store. The backend is closed only when the store
// created it.
func (s *SummaryStore) Close() error {
	if s.ownsBackend && !s.backend.IsClosed() {
		return s.backend.Close()
	}
	return nil
}
