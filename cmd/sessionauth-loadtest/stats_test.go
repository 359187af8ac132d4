package main

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := []struct {
		p    int
		want time.Duration
	}{
		{0, 1},
		{50, 5},
		{99, 9},
		{100, 10},
	}
	for _, tc := range cases {
		if got := percentile(samples, tc.p); got != tc.want {
			t.Fatalf("p%d = %d, want %d", tc.p, got, tc.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty samples should give 0, got %d", got)
	}
}

func TestRunPhaseCountsOpsAndFailures(t *testing.T) {
	var calls int64
	stats := runPhase(100, 8, func(_ *rand.Rand, i int) error {
		atomic.AddInt64(&calls, 1)
		if i%10 == 0 {
			return errors.New("boom")
		}
		return nil
	})

	if calls != 100 || stats.ops != 100 {
		t.Fatalf("expected 100 ops, got calls=%d ops=%d", calls, stats.ops)
	}
	if stats.failures != 10 {
		t.Fatalf("expected 10 failures, got %d", stats.failures)
	}
	if stats.p50 > stats.p99 {
		t.Fatalf("percentiles out of order: p50=%s p99=%s", stats.p50, stats.p99)
	}
}
