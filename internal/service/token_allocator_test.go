package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryTokenAllocatorSequencesPerDoctorAndDay(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryTokenAllocator()
	doctorA, doctorB := uuid.New(), uuid.New()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	for want := 1; want <= 3; want++ {
		got, err := a.Issue(ctx, doctorA, day)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if got != want {
			t.Fatalf("Issue = %d, want %d", got, want)
		}
	}

	if got, _ := a.Issue(ctx, doctorB, day); got != 1 {
		t.Errorf("other doctor first token = %d, want 1", got)
	}
	if got, _ := a.Issue(ctx, doctorA, nextDay); got != 1 {
		t.Errorf("next day first token = %d, want 1", got)
	}
}

func TestMemoryTokenAllocatorRelease(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryTokenAllocator()
	doctor := uuid.New()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a.Issue(ctx, doctor, day)
	two, _ := a.Issue(ctx, doctor, day)

	// releasing a token that is not the last one leaves the counter alone
	if err := a.Release(ctx, doctor, day, 1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got, _ := a.Issue(ctx, doctor, day); got != 3 {
		t.Fatalf("Issue after stale release = %d, want 3", got)
	}

	if err := a.Release(ctx, doctor, day, 3); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got, _ := a.Issue(ctx, doctor, day); got != two+1 {
		t.Fatalf("Issue after release = %d, want %d", got, two+1)
	}
}

func TestMemoryTokenAllocatorConcurrentIssueIsGapFree(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryTokenAllocator()
	doctor := uuid.New()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	const n = 100
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, _ := a.Issue(ctx, doctor, day)
			mu.Lock()
			seen[token] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	for i := 1; i <= n; i++ {
		if !seen[i] {
			t.Fatalf("token %d was never issued", i)
		}
	}
}

func TestTokenCounterKey(t *testing.T) {
	doctor := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	day := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	want := "visit:token:11111111-1111-1111-1111-111111111111:2024-07-04"
	if got := tokenCounterKey(doctor, day); got != want {
		t.Errorf("tokenCounterKey = %q, want %q", got, want)
	}
}

func TestTokenTTL(t *testing.T) {
	if got := tokenTTL(time.Now().AddDate(0, 0, -10)); got != time.Minute {
		t.Errorf("tokenTTL(past) = %v, want 1m", got)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if got := tokenTTL(today); got <= 24*time.Hour {
		t.Errorf("tokenTTL(today) = %v, want more than a day", got)
	}
}
