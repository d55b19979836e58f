// Package progress reports long-running retrieval progress on stderr.
// Short queries finish inside the quiet period and stay silent; only
// queries that keep paginating produce periodic status lines.
package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Timing of the reporter.
const (
	// QuietPeriod suppresses all output for the first part of a query.
	QuietPeriod = 10 * time.Second

	// ReportInterval is the cadence of status lines after the quiet period.
	ReportInterval = 2 * time.Second

	// minPrintGap prevents two lines from being printed back to back
	// when the ticker fires around a restart.
	minPrintGap = 1 * time.Second
)

var falconProgressReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "falcon_progress_reports_total",
	Help: "Total number of progress lines written to the terminal",
})

// Reporter periodically prints pagination progress. Updates only store
// the latest counters; all printing happens on the reporter's own
// goroutine so a slow terminal never stalls the retrieval loop.
type Reporter struct {
	out         io.Writer
	quietPeriod time.Duration
	interval    time.Duration
	minGap      time.Duration

	mu         sync.Mutex
	page       int
	totalPages int
	records    int
	startedAt  time.Time
	lastPrint  time.Time
	stop       chan struct{}
	done       chan struct{}
}

// New creates a reporter writing to stderr.
func New() *Reporter {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a reporter writing to the given writer (for testing).
func NewWithWriter(out io.Writer) *Reporter {
	return &Reporter{
		out:         out,
		quietPeriod: QuietPeriod,
		interval:    ReportInterval,
		minGap:      minPrintGap,
	}
}

// Start launches the reporter goroutine. Starting an already running
// reporter is a no-op; a stopped reporter can be started again.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop = stop
	r.done = done
	r.startedAt = time.Now()
	r.lastPrint = time.Time{}
	interval := r.interval
	r.mu.Unlock()

	go r.run(stop, done, interval)
}

// Update records the latest pagination counters. totalPages may be 0
// while the total count is still unknown.
func (r *Reporter) Update(page, totalPages, records int) {
	r.mu.Lock()
	r.page = page
	r.totalPages = totalPages
	r.records = records
	r.mu.Unlock()
}

// Stop ends reporting. It waits briefly for the reporter goroutine to
// exit so a status line never interleaves with the summary output.
// Stopping a reporter that is not running is a no-op.
func (r *Reporter) Stop() {
	r.mu.Lock()
	stop := r.stop
	done := r.done
	r.stop = nil
	r.done = nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
	}
}

func (r *Reporter) run(stop, done chan struct{}, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.report()
		}
	}
}

// report prints one status line unless the quiet period is still in
// effect or the previous line is too recent. The write happens outside
// the lock.
func (r *Reporter) report() {
	r.mu.Lock()
	if time.Since(r.startedAt) < r.quietPeriod {
		r.mu.Unlock()
		return
	}
	if !r.lastPrint.IsZero() && time.Since(r.lastPrint) < r.minGap {
		r.mu.Unlock()
		return
	}
	r.lastPrint = time.Now()
	page := r.page
	totalPages := r.totalPages
	records := r.records
	r.mu.Unlock()

	total := "?"
	if totalPages > 0 {
		total = strconv.Itoa(totalPages)
	}

	falconProgressReportsTotal.Inc()
	fmt.Fprintf(r.out, "Fetching page %d/%s ... (%d records retrieved)\n", page, total, records)
}
