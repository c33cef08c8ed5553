package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProgressTracker draws a single, rewritten line of progress for a long
// running operation over a known number of items.
//
// A line is drawn whenever progress advances by the report interval, and at
// most once per second in between so slow operations still show movement.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	label    string
	total    int
	done     int
	interval int
	shown    int
	start    time.Time
	running  bool
	tick     rate.Sometimes
}

// NewProgressTracker returns a tracker writing to w. label names what is
// processed and defaults to "Progress". A non-positive reportInterval
// reports every item.
func NewProgressTracker(w io.Writer, label string, total, reportInterval int) *ProgressTracker {
	if label == "" {
		label = "Progress"
	}
	return &ProgressTracker{
		w:        w,
		label:    label,
		total:    total,
		interval: max(reportInterval, 1),
		tick:     rate.Sometimes{Interval: time.Second},
	}
}

// Start resets the tracker and starts the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.running = true
	p.done, p.shown = 0, 0
}

// Update sets the number of processed items.
func (p *ProgressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(done)
}

// Increment adds delta processed items.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(p.done + delta)
}

// Finish draws the completed line and ends it with a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = p.total
	p.draw()
	fmt.Fprintln(p.w)
	p.running = false
}

// Elapsed returns the time since Start, or 0 before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

// advance must be called with the lock held.
func (p *ProgressTracker) advance(done int) {
	if !p.running {
		return
	}
	p.done = min(done, p.total)
	if p.done-p.shown >= p.interval {
		p.draw()
		return
	}
	p.tick.Do(p.draw)
}

func (p *ProgressTracker) draw() {
	elapsed := time.Since(p.start)
	perSecond := float64(p.done) / elapsed.Seconds()

	percent := 0.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total) * 100
	}

	eta := ""
	if remaining := p.total - p.done; remaining > 0 && perSecond > 0 {
		left := time.Duration(float64(remaining) / perSecond * float64(time.Second))
		eta = fmt.Sprintf(", %s left", left.Round(time.Second))
	}

	fmt.Fprintf(p.w, "\r%s: %d/%d (%.1f%%) - %.1f records/s%s", p.label, p.done, p.total, percent, perSecond, eta)
	p.shown = p.done
}
