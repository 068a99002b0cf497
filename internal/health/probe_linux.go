//go:build linux

package health

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// cpuSample holds one /proc/stat aggregate CPU-time reading.
type cpuSample struct {
	idle, total uint64
}

// RealProbe samples true OS memory utilization via unix.Sysinfo and CPU
// utilization via successive /proc/stat deltas — the Linux analogue of the
// teacher's psutil.cpu_percent()/psutil.virtual_memory() calls.
type RealProbe struct {
	mu   sync.Mutex
	last *cpuSample
}

// NewRealProbe returns a Probe backed by real Linux kernel counters.
func NewRealProbe() *RealProbe {
	return &RealProbe{}
}

func (p *RealProbe) Sample() (cpuPercent, memPercent float64, err error) {
	memPercent, err = p.sampleMemory()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err = p.sampleCPU()
	if err != nil {
		return 0, 0, err
	}
	return cpuPercent, memPercent, nil
}

func (p *RealProbe) sampleMemory() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("health: sysinfo: %w", err)
	}
	total := uint64(info.Totalram) * uint64(info.Unit)
	free := uint64(info.Freeram) * uint64(info.Unit)
	if total == 0 {
		return 0, fmt.Errorf("health: sysinfo reported zero total memory")
	}
	used := total - free
	return float64(used) / float64(total) * 100.0, nil
}

func (p *RealProbe) sampleCPU() (float64, error) {
	sample, err := readProcStatCPU()
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		p.last = sample
		// No prior sample to diff against yet; report 0 rather than a
		// misleading instantaneous value (mirrors psutil's first-call
		// convention of priming with interval=None).
		return 0, nil
	}

	totalDelta := sample.total - p.last.total
	idleDelta := sample.idle - p.last.idle
	p.last = sample

	if totalDelta == 0 {
		return 0, nil
	}
	busy := totalDelta - idleDelta
	return float64(busy) / float64(totalDelta) * 100.0, nil
}

func readProcStatCPU() (*cpuSample, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return nil, fmt.Errorf("health: open /proc/stat: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("health: /proc/stat empty")
	}
	var label string
	var user, nice, system, idle, iowait, irq, softirq, steal uint64
	_, err = fmt.Sscanf(scanner.Text(), "%s %d %d %d %d %d %d %d %d",
		&label, &user, &nice, &system, &idle, &iowait, &irq, &softirq, &steal)
	if err != nil {
		return nil, fmt.Errorf("health: parse /proc/stat: %w", err)
	}

	total := user + nice + system + idle + iowait + irq + softirq + steal
	return &cpuSample{idle: idle + iowait, total: total}, nil
}
