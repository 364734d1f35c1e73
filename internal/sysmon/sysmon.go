// Package sysmon samples host-wide CPU and memory usage so a comparison run
// can record how loaded the machine was while its workers ran.
package sysmon

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Host is one snapshot of host resource usage. Percentages are 0..100.
type Host struct {
	CPUPercent   float64
	MemPercent   float64
	MemUsedBytes uint64
	LogicalCPUs  int
}

// Sample reads a snapshot. CPU usage is the delta since the previous call
// in this process, so the first call after startup reflects boot-to-now.
// Fields that cannot be read are left zero.
func Sample(ctx context.Context) Host {
	var h Host
	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		h.CPUPercent = pcts[0]
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		h.LogicalCPUs = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		h.MemPercent = vm.UsedPercent
		h.MemUsedBytes = vm.Used
	}
	return h
}
