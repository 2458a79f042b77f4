package health

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	sigar "github.com/elastic/gosigar"
	"github.com/mackerelio/go-osstat/cpu"
	"github.com/mackerelio/go-osstat/loadavg"
	"github.com/mackerelio/go-osstat/memory"
)

const cpuSampleInterval = 500 * time.Millisecond

type systemStats struct {
	CPUPercent    float64
	MemoryPercent float64
	MemoryFree    uint64
	DiskPercent   float64
	DiskFree      uint64
	LoadAvg1      *float64
}

// collectSystemStats reads current host utilization. CPU percentage needs
// two counter samples, so this blocks for the sample interval.
func collectSystemStats() (*systemStats, error) {
	before, err := cpu.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu stats: %w", err)
	}
	time.Sleep(cpuSampleInterval)
	after, err := cpu.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu stats: %w", err)
	}

	var cpuPercent float64
	if total := float64(after.Total - before.Total); total > 0 {
		cpuPercent = (total - float64(after.Idle-before.Idle)) / total * 100
	}

	mem, err := memory.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory stats: %w", err)
	}
	var memPercent float64
	if mem.Total > 0 {
		memPercent = float64(mem.Used) / float64(mem.Total) * 100
	}

	// gosigar reports filesystem sizes in KiB.
	var fsu sigar.FileSystemUsage
	if err := fsu.Get("/"); err != nil {
		return nil, fmt.Errorf("failed to get disk stats: %w", err)
	}

	stats := &systemStats{
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		MemoryFree:    mem.Free,
		DiskPercent:   fsu.UsePercent(),
		DiskFree:      fsu.Free * 1024,
	}

	// Load average is not exposed on every platform.
	if load, err := loadavg.Get(); err == nil {
		stats.LoadAvg1 = &load.Loadavg1
	}

	return stats, nil
}

// checkSystemResources compares host utilization against the configured
// thresholds. Disk pressure is a hard failure, CPU and memory pressure only
// degrade the status.
func (c *Checker) checkSystemResources(_ context.Context) Result {
	stats, err := c.readSystemStats()
	if err != nil {
		return Result{
			Status:  StatusSkip,
			Message: fmt.Sprintf("System statistics not available on this platform: %v", err),
			Details: map[string]any{},
		}
	}

	status := StatusPass
	var issues []string

	if stats.CPUPercent > c.cfg.CPUThresholdPercent {
		status = StatusWarning
		issues = append(issues, fmt.Sprintf("High CPU usage: %.1f%%", stats.CPUPercent))
	}
	if stats.MemoryPercent > c.cfg.MemoryThresholdPercent {
		status = StatusWarning
		issues = append(issues, fmt.Sprintf("High memory usage: %.1f%%", stats.MemoryPercent))
	}
	if stats.DiskPercent > c.cfg.DiskThresholdPercent {
		status = StatusFail
		issues = append(issues, fmt.Sprintf("High disk usage: %.1f%%", stats.DiskPercent))
	}

	message := "System resources normal"
	if len(issues) > 0 {
		message = strings.Join(issues, "; ")
	}

	details := map[string]any{
		"cpu_percent":    round1(stats.CPUPercent),
		"memory_percent": round1(stats.MemoryPercent),
		"memory_free":    humanize.IBytes(stats.MemoryFree),
		"disk_percent":   round1(stats.DiskPercent),
		"disk_free":      humanize.IBytes(stats.DiskFree),
	}
	if stats.LoadAvg1 != nil {
		details["load_average"] = *stats.LoadAvg1
	}

	return Result{Status: status, Message: message, Details: details}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
