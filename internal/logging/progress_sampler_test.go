package logging_test

import (
	"testing"

	"bibleref/internal/logging"
)

func TestProgressSamplerEmitsOnBucketCrossing(t *testing.T) {
	s := logging.NewProgressSampler(25)
	var emitted []int
	for done := 0; done <= 8; done++ {
		if s.ShouldLog(done, 8) {
			emitted = append(emitted, done)
		}
	}
	want := []int{0, 2, 4, 6, 8}
	if len(emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("emitted %v, want %v", emitted, want)
		}
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := logging.NewProgressSampler(0)
	if s.ShouldLog(3, 0) {
		t.Fatal("expected no emission for unknown total")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := logging.NewProgressSampler(50)
	if !s.ShouldLog(0, 10) {
		t.Fatal("expected first call to emit")
	}
	if s.ShouldLog(1, 10) {
		t.Fatal("expected same bucket to be suppressed")
	}
	s.Reset()
	if !s.ShouldLog(1, 10) {
		t.Fatal("expected emission after reset")
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *logging.ProgressSampler
	if !s.ShouldLog(1, 2) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}
