package hoststats

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aegisvault/aegis-monitor/pkg/models"
	"github.com/aegisvault/aegis-monitor/pkg/services"
)

// Collector reads resource usage of the local machine
type Collector struct {
	DiskPath string
}

var _ services.HostStatsProvider = (*Collector)(nil)

// NewCollector creates a collector reporting usage of the root filesystem
func NewCollector() *Collector {
	return &Collector{DiskPath: "/"}
}

// Collect samples CPU, memory, disk and uptime. Only the memory reading is
// required; the others are reported as zero when unavailable.
func (c *Collector) Collect(ctx context.Context) (*models.HostStats, error) {
	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}

	stats := &models.HostStats{MemoryPercent: memInfo.UsedPercent}

	// Zero interval compares against the previous call
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	if du, err := disk.UsageWithContext(ctx, c.DiskPath); err == nil && du != nil {
		stats.DiskPercent = du.UsedPercent
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = info.Hostname
		stats.UptimeSeconds = info.Uptime
	} else {
		stats.Hostname, _ = os.Hostname()
	}

	return stats, nil
}
