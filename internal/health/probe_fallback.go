//go:build !linux

package health

import "runtime"

// RealProbe on non-Linux platforms falls back to runtime.MemStats, since
// the Sysinfo/procfs syscalls RealProbe uses on Linux have no portable
// equivalent in the stdlib. The memory percentage it reports is this
// process's in-use heap as a share of the memory the Go runtime obtained
// from the OS, not host-wide utilization. CPU utilization has no
// stdlib-only analogue either, so it is reported as 0 here and no CPU
// alarms fire off-Linux.
type RealProbe struct{}

// NewRealProbe returns the stdlib-only fallback Probe.
func NewRealProbe() *RealProbe { return &RealProbe{} }

func (p *RealProbe) Sample() (cpuPercent, memPercent float64, err error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if stats.Sys == 0 {
		return 0, 0, nil
	}
	memPercent = float64(stats.HeapInuse) / float64(stats.Sys) * 100.0
	return 0, memPercent, nil
}
