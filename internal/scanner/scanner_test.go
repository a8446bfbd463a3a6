package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/bookd/internal/library"
)

// TestNew verifies defaults
func TestNew(t *testing.T) {
	store := library.NewStore()

	sc := New(store, "cat", 0)
	defer sc.Stop()
	assert.Equal(t, DefaultInterval, sc.Interval())
	assert.Equal(t, "cat", sc.Term())
	assert.NotNil(t, sc.report)

	sc2 := New(store, "dog", time.Second)
	defer sc2.Stop()
	assert.Equal(t, time.Second, sc2.Interval())
}

// TestCountMatches tests substring counting semantics
func TestCountMatches(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		term  string
		want  int
	}{
		{name: "substring not whole word", lines: []string{"cat", "dog", "concatenate"}, term: "cat", want: 2},
		{name: "case sensitive", lines: []string{"Cat", "CAT", "cat"}, term: "cat", want: 1},
		{name: "one count per line", lines: []string{"cat cat cat"}, term: "cat", want: 1},
		{name: "no regex semantics", lines: []string{"a.c", "abc"}, term: "a.c", want: 1},
		{name: "no lines", lines: nil, term: "cat", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountMatches(tt.lines, tt.term))
		})
	}
}

// TestScan verifies one result per book in traversal order
func TestScan(t *testing.T) {
	store := library.NewStore()
	pets, _ := store.FindOrCreateBook("Pets")
	store.AppendLine(pets, "cat")
	store.AppendLine(pets, "dog")
	store.AppendLine(pets, "concatenate")
	store.FindOrCreateBook("Empty")
	other, _ := store.FindOrCreateBook("Other")
	store.AppendLine(other, "no match")

	sc := New(store, "cat", time.Hour)
	defer sc.Stop()

	results := sc.Scan()
	assert.Equal(t, []Result{
		{Title: "Pets", Count: 2},
		{Title: "Empty", Count: 0},
		{Title: "Other", Count: 0},
	}, results)
}

// TestScanEmptyStore verifies a scan of an empty store reports nothing
func TestScanEmptyStore(t *testing.T) {
	sc := New(library.NewStore(), "cat", time.Hour)
	defer sc.Stop()

	assert.Empty(t, sc.Scan())
}

// TestStart verifies the scanner reports on every tick and sees new lines
func TestStart(t *testing.T) {
	store := library.NewStore()
	b, _ := store.FindOrCreateBook("Pets")
	store.AppendLine(b, "cat")

	sc := New(store, "cat", 20*time.Millisecond)

	var mu sync.Mutex
	var reports [][]Result
	sc.SetReporter(func(results []Result) {
		mu.Lock()
		reports = append(reports, results)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sc.Start(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	store.AppendLine(b, "bobcat")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := reports[len(reports)-1]
		return len(last) == 1 && last[0].Count == 2
	}, 2*time.Second, 5*time.Millisecond)

	sc.Stop()

	mu.Lock()
	n := len(reports)
	mu.Unlock()
	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(reports), "no reports after Stop")
	mu.Unlock()
}

// TestStartContextCancel verifies the loop exits when the caller's context ends
func TestStartContextCancel(t *testing.T) {
	sc := New(library.NewStore(), "cat", time.Hour)
	defer sc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sc.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop on context cancellation")
	}
}
