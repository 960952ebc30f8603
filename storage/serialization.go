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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/copilot/core"
)

// SummaryMUS is the MUS serializer for core.Summary.
// CreatedAt is encoded as Unix microseconds.
var SummaryMUS = summaryMUS{}

type summaryMUS struct{}

func (summaryMUS) Marshal(s core.Summary, bs []byte) (n int) {
	n = ord.String.Marshal(s.URL, bs)
	n += ord.String.Marshal(s.Title, bs[n:])
	n += ord.String.Marshal(s.Content, bs[n:])
	n += varint.Int64.Marshal(unixMicro(s.CreatedAt), bs[n:])
	return
}

func (summaryMUS) Unmarshal(bs []byte) (s core.Summary, n int, err error) {
	var n1 int
	s.URL, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	s.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if micros != 0 {
		s.CreatedAt = time.UnixMicro(micros)
	}
	return
}

func (summaryMUS) Size(s core.Summary) (size int) {
	size = ord.String.Size(s.URL)
	size += ord.String.Size(s.Title)
	size += ord.String.Size(s.Content)
	return size + varint.Int64.Size(unixMicro(s.CreatedAt))
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// MarshalSummary serializes a Summary to bytes.
func MarshalSummary(summary *core.Summary) []byte {
	buf := make([]byte, SummaryMUS.Size(*summary))
	SummaryMUS.Marshal(*summary, buf)
	return buf
}

// UnmarshalSummary deserializes a Summary from bytes.
func UnmarshalSummary(data []byte) (*core.Summary, error) {
	summary, n, err := SummaryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &summary, nil
}
