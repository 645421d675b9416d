// Package monitor samples the process's OS thread count in the background
// and retains the peak observed during a timed benchmark phase.
package monitor

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
)

// DefaultInterval is the sampling period. The peak is a best-effort
// diagnostic; a coarse interval keeps the sampler's own cost negligible but
// can miss thread spikes shorter than one period.
const DefaultInterval = 100 * time.Millisecond

// Monitor observes the number of live OS threads while a timed phase runs.
// The peak value is owned by the sampler goroutine until Stop joins it;
// callers must not read Peak before Stop returns.
type Monitor struct {
	interval time.Duration
	peak     int
	stop     chan struct{}
	done     chan struct{}
}

// New creates a monitor sampling at the given interval. A non-positive
// interval selects DefaultInterval.
func New(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins sampling on a dedicated goroutine. It samples once
// immediately so even phases shorter than the interval report a peak.
func (m *Monitor) Start() {
	go func() {
		defer close(m.done)

		m.observe()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				m.observe()
				return
			case <-ticker.C:
				m.observe()
			}
		}
	}()
}

// Stop signals the sampler and blocks until it has exited. After Stop
// returns, Peak is stable and safe to read from the caller's goroutine.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

// Peak returns the maximum thread count observed. Only valid after Stop.
func (m *Monitor) Peak() int {
	return m.peak
}

func (m *Monitor) observe() {
	if n := threadCount(); n > m.peak {
		m.peak = n
	}
}

// threadCount reads the live OS thread count from /proc/self/stat. Off
// Linux, or if procfs is unreadable, the goroutine count stands in as the
// closest available proxy for scheduler activity.
func threadCount() int {
	if proc, err := procfs.Self(); err == nil {
		if stat, err := proc.Stat(); err == nil && stat.NumThreads > 0 {
			return stat.NumThreads
		}
	}
	return runtime.NumGoroutine()
}
