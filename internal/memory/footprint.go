// Package memory reports the process memory footprint for benchmark output.
package memory

import (
	"runtime"

	"github.com/prometheus/procfs"

	"github.com/fannsbench/unify/internal/errors"
)

// Footprint captures the process-wide memory numbers reported after a
// benchmark phase.
type Footprint struct {
	// PeakRSSBytes is the high-water resident set size (VmHWM).
	PeakRSSBytes uint64
	// PeakVirtualBytes is the peak virtual memory size (VmPeak).
	PeakVirtualBytes uint64
}

// PeakRSSMB returns the peak resident set size in megabytes.
func (f Footprint) PeakRSSMB() float64 {
	return float64(f.PeakRSSBytes) / (1024 * 1024)
}

// PeakVirtualMB returns the peak virtual size in megabytes.
func (f Footprint) PeakVirtualMB() float64 {
	return float64(f.PeakVirtualBytes) / (1024 * 1024)
}

// ReadFootprint reads the peak footprint of the current process from
// /proc/self/status.
func ReadFootprint() (Footprint, error) {
	proc, err := procfs.Self()
	if err != nil {
		return Footprint{}, errors.WrapIOError(err, "memory.footprint", "procfs unavailable")
	}
	status, err := proc.NewStatus()
	if err != nil {
		return Footprint{}, errors.WrapIOError(err, "memory.footprint", "unable to read process status")
	}
	return Footprint{
		PeakRSSBytes:     status.VmHWM,
		PeakVirtualBytes: status.VmPeak,
	}, nil
}

// RuntimeStats is a snapshot of Go heap state, logged at debug level
// alongside the footprint report.
type RuntimeStats struct {
	HeapAllocBytes uint64
	HeapSysBytes   uint64
	HeapObjects    uint64
	NumGC          uint32
	NumGoroutines  int
}

// ReadRuntimeStats captures the current Go runtime memory state.
func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		HeapAllocBytes: m.HeapAlloc,
		HeapSysBytes:   m.HeapSys,
		HeapObjects:    m.HeapObjects,
		NumGC:          m.NumGC,
		NumGoroutines:  runtime.NumGoroutine(),
	}
}
