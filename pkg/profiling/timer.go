// Package profiling times CLI operations and writes pprof profiles on
// request.
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	depth    int
	start    time.Time
	duration time.Duration
	profiler *Profiler
	once     sync.Once
}

func (s *span) Stop() {
	s.once.Do(func() {
		s.profiler.end(s, time.Since(s.start))
	})
}

// Profiler records nested spans for one process run. Spans started while
// another is open are nested under it.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	started time.Time
	open    int
	spans   []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler.
func Enable() {
	defaultProfiler.Enable()
}

// Start begins a span on the global profiler. It is a no-op when profiling
// is disabled.
func Start(name string) Stopper {
	return defaultProfiler.Start(name)
}

// Summarize writes the global profiler's spans to w.
func Summarize(w io.Writer) {
	defaultProfiler.Summarize(w)
}

// Enable starts recording.
func (p *Profiler) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}
	p.enabled = true
	p.started = time.Now()
}

// Start begins a span.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return noopStopper{}
	}
	s := &span{name: name, depth: p.open, start: time.Now(), profiler: p}
	p.open++
	p.spans = append(p.spans, s)
	return s
}

func (p *Profiler) end(s *span, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.duration = d
	if p.open > 0 {
		p.open--
	}
}

// Summarize prints every span in start order, indented by nesting, with its
// share of the total run time.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}

	total := time.Since(p.started)
	spans := append([]*span(nil), p.spans...)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].start.Before(spans[j].start)
	})

	fmt.Fprintf(w, "\n--- Timing (%v total) ---\n", total.Round(100*time.Microsecond))
	for _, s := range spans {
		share := 0.0
		if total > 0 {
			share = float64(s.duration) / float64(total) * 100
		}
		d := s.duration.Round(100 * time.Microsecond).String()
		if s.duration == 0 {
			d = "running"
		}
		fmt.Fprintf(w, "%s- %s (%s, %.1f%%)\n", strings.Repeat("  ", s.depth), s.name, d, share)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
