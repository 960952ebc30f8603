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


package pipeline

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// thinkSplitter separates reasoning spans from answer text in a streamed
// model response. Tags may be split across chunks, so any trailing text
// that could begin a tag is held back until the next chunk decides it.
type thinkSplitter struct {
	inThink bool
	pending string
	answer  strings.Builder

	onThinking func(string) error
	onAnswer   func(string) error
}

func newThinkSplitter(onThinking, onAnswer func(string) error) *thinkSplitter {
	return &thinkSplitter{onThinking: onThinking, onAnswer: onAnswer}
}

// Write consumes the next chunk of the stream.
func (s *thinkSplitter) Write(chunk string) error {
	s.pending += chunk
	for {
		tag := thinkOpen
		if s.inThink {
			tag = thinkClose
		}

		if idx := strings.Index(s.pending, tag); idx >= 0 {
			if err := s.emit(s.pending[:idx]); err != nil {
				return err
			}
			s.pending = s.pending[idx+len(tag):]
			s.inThink = !s.inThink
			continue
		}

		hold := partialTagSuffix(s.pending, tag)
		ready := s.pending[:len(s.pending)-hold]
		s.pending = s.pending[len(s.pending)-hold:]
		return s.emit(ready)
	}
}

// Flush emits whatever is still held back. An unterminated reasoning span
// stays reasoning.
func (s *thinkSplitter) Flush() error {
	rest := s.pending
	s.pending = ""
	return s.emit(rest)
}

// Answer returns the answer text seen so far, without reasoning spans.
func (s *thinkSplitter) Answer() string {
	return strings.TrimSpace(s.answer.String())
}

func (s *thinkSplitter) emit(text string) error {
	if text == "" {
		return nil
	}
	if s.inThink {
		return s.onThinking(text)
	}
	s.answer.WriteString(text)
	return s.onAnswer(text)
}

// partialTagSuffix returns the length of the longest suffix of s that is a
// proper prefix of tag.
func partialTagSuffix(s, tag string) int {
	for n := min(len(s), len(tag)-1); n > 0; n-- {
		if strings.HasSuffix(s, tag[:n]) {
			return n
		}
	}
	return 0
}

// stripThinking removes complete and unterminated reasoning spans.
func stripThinking(text string) string {
	var b strings.Builder
	s := newThinkSplitter(
		func(string) error { return nil },
		func(t string) error { b.WriteString(t); return nil },
	)
	_ = s.Write(text)
	_ = s.Flush()
	return strings.TrimSpace(b.String())
}
