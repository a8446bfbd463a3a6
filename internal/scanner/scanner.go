// Package scanner implements the recurring Pattern Scanner, which counts how
// many lines of every book contain a fixed search term.
package scanner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/bookd/internal/library"
	"github.com/dreamware/bookd/internal/logger"
	"github.com/dreamware/bookd/internal/metrics"
)

// DefaultInterval is the time between scans when none is configured
const DefaultInterval = 5 * time.Second

// Result is the match count for one book in one scan.
type Result struct {
	Title string // Book title
	Count int    // Lines containing the term
}

// BookSource is the part of the store the scanner reads.
type BookSource interface {
	ForEachBook(visit func(title string, lines []string))
}

// Scanner periodically scans every book for a search term.
// Thread-safe: Start, Stop and Scan may be called from any goroutine.
type Scanner struct {
	source   BookSource             // Books to scan
	report   func(results []Result) // Called after each scheduled scan
	log      *logrus.Entry          // Component logger
	ctx      context.Context        // Context for cancellation
	cancel   context.CancelFunc     // Cancel function for shutdown
	term     string                 // Immutable search term
	interval time.Duration          // Time between scans
	wg       sync.WaitGroup         // Wait group for graceful shutdown
}

// New creates a scanner for term over source. A non-positive interval
// falls back to DefaultInterval.
//
// Parameters:
//   - source: Store to scan
//   - term: Substring to count (case-sensitive, no pattern syntax)
//   - interval: Time between scans
//
// Example:
//
//	sc := scanner.New(store, "whale", 5*time.Second)
//	go sc.Start(ctx)
//	defer sc.Stop()
func New(source BookSource, term string, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scanner{
		source:   source,
		term:     term,
		interval: interval,
		log:      logger.GetLogger("scanner"),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.report = s.logResults
	return s
}

// Term returns the search term
func (s *Scanner) Term() string {
	return s.term
}

// Interval returns the time between scans
func (s *Scanner) Interval() time.Duration {
	return s.interval
}

// SetReporter replaces the default log reporter. Must be called before Start.
func (s *Scanner) SetReporter(report func(results []Result)) {
	s.report = report
}

// Start runs the scan loop in the current goroutine until ctx or the
// scanner's own context is canceled. The first scan runs one interval after
// Start, then every interval.
func (s *Scanner) Start(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	if ctx == nil {
		ctx = s.ctx
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infof("Pattern scanner started for %q every %v", s.term, s.interval)

	for {
		select {
		case <-ticker.C:
			s.report(s.Scan())
		case <-ctx.Done():
			s.log.Debug("Pattern scanner stopping due to context cancellation")
			return
		case <-s.ctx.Done():
			s.log.Debug("Pattern scanner stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the scan loop and waits for it to return.
func (s *Scanner) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Scan performs one full pass over the store and returns one result per book
// in traversal order. It holds the store lock for the whole pass, so writers
// wait until it finishes.
func (s *Scanner) Scan() []Result {
	start := time.Now()

	var (
		results []Result
		total   int
	)
	s.source.ForEachBook(func(title string, lines []string) {
		count := CountMatches(lines, s.term)
		total += count
		results = append(results, Result{Title: title, Count: count})
	})

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScanMatches.Set(float64(total))
	return results
}

// CountMatches returns how many lines contain term as a substring.
func CountMatches(lines []string, term string) int {
	count := 0
	for _, line := range lines {
		if strings.Contains(line, term) {
			count++
		}
	}
	return count
}

func (s *Scanner) logResults(results []Result) {
	s.log.Infof("Analyzing pattern %q across %d books", s.term, len(results))
	for _, r := range results {
		s.log.Infof("Book %q has %d occurrences of %q", r.Title, r.Count, s.term)
	}
}

var _ BookSource = (*library.Store)(nil)
