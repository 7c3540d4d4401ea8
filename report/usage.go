package report

import (
	"os"

	"github.com/shirou/gopsutil/process"
)

// Usage is the resource consumption of the profiling process.
type Usage struct {
	CPUPercent float64
	RSS        uint64
}

// ResourceUsage samples the CPU and resident memory of this process.
func ResourceUsage() (Usage, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Usage{}, err
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		return Usage{}, err
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return Usage{}, err
	}

	return Usage{CPUPercent: cpu, RSS: mem.RSS}, nil
}
