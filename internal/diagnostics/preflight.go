package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Thresholds below which Preflight warns. Zero disables a check.
type Thresholds struct {
	MinFreeDiskMB        float64
	MinAvailableMemoryMB float64
	MaxLoadPerCPU        float64
}

// DefaultThresholds returns the thresholds used by the CLI.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFreeDiskMB:        512,
		MinAvailableMemoryMB: 256,
		MaxLoadPerCPU:        2.0,
	}
}

// Snapshot is the host state seen by one preflight. Fields stay zero when
// the platform does not report them.
type Snapshot struct {
	DiskPath       string  `json:"disk_path"`
	DiskFreeMB     float64 `json:"disk_free_mb"`
	DiskPercent    float64 `json:"disk_percent"`
	MemAvailableMB float64 `json:"mem_available_mb"`
	MemPercent     float64 `json:"mem_percent"`
	Load1          float64 `json:"load_avg_1"`
	CPUThreads     int     `json:"cpu_threads"`
}

// PreflightResult contains the result of pre-execution checks.
type PreflightResult struct {
	Warnings []string
	Snapshot Snapshot
}

// OK reports whether no threshold was crossed.
func (r PreflightResult) OK() bool { return len(r.Warnings) == 0 }

// Probe reads host metrics through gopsutil.
type Probe struct {
	thresholds Thresholds

	diskUsage func(path string) (*disk.UsageStat, error)
	memory    func() (*mem.VirtualMemoryStat, error)
	loadAvg   func() (*load.AvgStat, error)
	cpuCount  func(logical bool) (int, error)
}

// NewProbe creates a probe with the given thresholds.
func NewProbe(t Thresholds) *Probe {
	return &Probe{
		thresholds: t,
		diskUsage:  disk.Usage,
		memory:     mem.VirtualMemory,
		loadAvg:    load.Avg,
		cpuCount:   cpu.Counts,
	}
}

// Preflight checks the filesystem holding path (or its nearest existing
// parent), memory and load. Metrics that cannot be read are skipped.
func (p *Probe) Preflight(path string) PreflightResult {
	var result PreflightResult
	snap := &result.Snapshot
	th := p.thresholds

	snap.DiskPath = nearestExisting(path)
	if usage, err := p.diskUsage(snap.DiskPath); err == nil {
		snap.DiskFreeMB = float64(usage.Free) / 1024 / 1024
		snap.DiskPercent = usage.UsedPercent
		if th.MinFreeDiskMB > 0 && snap.DiskFreeMB < th.MinFreeDiskMB {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("low disk space at %s: %.0f MB free (minimum: %.0f MB)",
					snap.DiskPath, snap.DiskFreeMB, th.MinFreeDiskMB))
		}
	}

	if vm, err := p.memory(); err == nil {
		snap.MemAvailableMB = float64(vm.Available) / 1024 / 1024
		snap.MemPercent = vm.UsedPercent
		if th.MinAvailableMemoryMB > 0 && snap.MemAvailableMB < th.MinAvailableMemoryMB {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("low memory: %.0f MB available (minimum: %.0f MB)",
					snap.MemAvailableMB, th.MinAvailableMemoryMB))
		}
	}

	if threads, err := p.cpuCount(true); err == nil && threads > 0 {
		snap.CPUThreads = threads
	}
	if avg, err := p.loadAvg(); err == nil {
		snap.Load1 = avg.Load1
		if th.MaxLoadPerCPU > 0 && snap.CPUThreads > 0 {
			if perCPU := avg.Load1 / float64(snap.CPUThreads); perCPU > th.MaxLoadPerCPU {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("high load: %.2f per CPU over the last minute (maximum: %.2f)",
						perCPU, th.MaxLoadPerCPU))
			}
		}
	}

	return result
}

// nearestExisting walks up from path to the first directory that exists.
func nearestExisting(path string) string {
	dir := filepath.Clean(path)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
