package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name     string
		a        []string
		b        []string
		wantSame bool
	}{
		{
			name:     "same parts produce same key",
			a:        []string{"what is go", "balanced"},
			b:        []string{"what is go", "balanced"},
			wantSame: true,
		},
		{
			name:     "different parts",
			a:        []string{"what is go", "balanced"},
			b:        []string{"what is go", "speed"},
			wantSame: false,
		},
		{
			name:     "boundaries are significant",
			a:        []string{"ab", "c"},
			b:        []string{"a", "bc"},
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1 := HashKey("search", tt.a...)
			k2 := HashKey("search", tt.b...)
			if (k1 == k2) != tt.wantSame {
				t.Errorf("HashKey() same=%v, want %v (%s vs %s)", k1 == k2, tt.wantSame, k1, k2)
			}
		})
	}
}

func TestHashKey_Namespaced(t *testing.T) {
	k1 := HashKey("answer", "q")
	k2 := HashKey("documents", "q")
	if k1 == k2 {
		t.Fatal("keys from different namespaces collided")
	}
	if !strings.HasPrefix(k1, "answer:") {
		t.Errorf("key %q missing namespace prefix", k1)
	}
}

func TestNormalizeQuery(t *testing.T) {
	got := NormalizeQuery("  What IS\tphotosynthesis? ")
	if got != "what is photosynthesis?" {
		t.Errorf("NormalizeQuery() = %q", got)
	}
}

func TestDedupeByURL(t *testing.T) {
	docs := []SearchDocument{
		{URL: "https://a", Title: "first"},
		{URL: "https://b"},
		{URL: "https://a", Title: "second"},
	}
	got := DedupeByURL(docs)
	if len(got) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(got))
	}
	if got[0].Title != "first" {
		t.Errorf("expected first occurrence to win, got %q", got[0].Title)
	}
}

func TestOptimizationMode_MaxSubQueries(t *testing.T) {
	tests := map[OptimizationMode]int{
		ModeSpeed:    2,
		ModeBalanced: 3,
		ModeQuality:  4,
	}
	for mode, want := range tests {
		if got := mode.MaxSubQueries(); got != want {
			t.Errorf("%s.MaxSubQueries() = %d, want %d", mode, got, want)
		}
	}
}

func TestPipelineRun_Advance(t *testing.T) {
	now := time.Now()
	run := NewPipelineRun("id", "q", nil, ModeBalanced)

	steps := []Stage{StageQueryGeneration, StageRetrieval, StageReranking, StageSynthesis, StageDone}
	for i, stage := range steps {
		if err := run.Advance(stage, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Advance(%s) error = %v", stage, err)
		}
	}
	if len(run.Timings) != 4 {
		t.Fatalf("expected 4 timings, got %d", len(run.Timings))
	}
	if run.Timings[0].Stage != StageQueryGeneration || run.Timings[0].Duration != time.Second {
		t.Errorf("unexpected first timing %+v", run.Timings[0])
	}

	if err := run.Advance(StageFailed, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected transition out of terminal stage to fail, got %v", err)
	}
}

func TestPipelineRun_NoBackwardTransitions(t *testing.T) {
	run := NewPipelineRun("id", "q", nil, ModeBalanced)
	now := time.Now()
	if err := run.Advance(StageReranking, now); err != nil {
		t.Fatal(err)
	}
	if err := run.Advance(StageRetrieval, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected backward transition to fail, got %v", err)
	}
	if err := run.Advance(StageFailed, now); err != nil {
		t.Errorf("failed must be reachable from any stage, got %v", err)
	}
}
