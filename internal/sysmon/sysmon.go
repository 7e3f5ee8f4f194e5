// Package sysmon reports memory figures for the running server and derives
// how large an upload it can afford to merge in memory.
package sysmon

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MinUploadBudget is the smallest budget ever reported, so a busy host still
// accepts small logs.
const MinUploadBudget int64 = 1 << 20

// Status is a point-in-time view of memory, as served on /status.
type Status struct {
	TotalMB      float64 `json:"total_mb"`
	AvailableMB  float64 `json:"available_mb"`
	ProcessRSSMB float64 `json:"process_rss_mb"`
	UploadBudget int64   `json:"upload_budget_bytes"`
}

// Budget returns the upload size limit for a request. Parsed logs take
// several times their raw size, so only a quarter of the available memory
// is offered. A positive configured limit caps the result.
func Budget(configured int64, available uint64) int64 {
	budget := int64(available / 4)
	if configured > 0 && configured < budget {
		budget = configured
	}
	if budget < MinUploadBudget {
		budget = MinUploadBudget
	}
	return budget
}

// Monitor reads memory statistics. The zero value is not usable; use New.
type Monitor struct {
	configured int64
	virtual    func(context.Context) (*mem.VirtualMemoryStat, error)
	rss        func(context.Context) (uint64, error)
}

// New returns a Monitor for the current process. configured is the
// operator's upload limit, 0 for none.
func New(configured int64) *Monitor {
	return &Monitor{
		configured: configured,
		virtual:    mem.VirtualMemoryWithContext,
		rss:        selfRSS,
	}
}

func selfRSS(ctx context.Context) (uint64, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, fmt.Errorf("process not found: %w", err)
	}
	info, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read memory info: %w", err)
	}
	return info.RSS, nil
}

// UploadBudget returns the current upload limit. If memory statistics are
// unavailable only the configured limit applies.
func (m *Monitor) UploadBudget(ctx context.Context) int64 {
	vm, err := m.virtual(ctx)
	if err != nil {
		return max(m.configured, MinUploadBudget)
	}
	return Budget(m.configured, vm.Available)
}

// Status collects the figures shown on /status.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	vm, err := m.virtual(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read virtual memory: %w", err)
	}
	rss, err := m.rss(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		TotalMB:      toMB(vm.Total),
		AvailableMB:  toMB(vm.Available),
		ProcessRSSMB: toMB(rss),
		UploadBudget: Budget(m.configured, vm.Available),
	}, nil
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
