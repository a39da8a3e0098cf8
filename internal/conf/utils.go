package conf

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// EffectiveMaxWorkers returns min(settings.MaxWorkers, logical CPU count),
// per spec.md §4.F's "MAX_WORKERS = min(4, cpu_count)". Logical CPU count is
// read via gopsutil (consistent with how the rest of the stack reports
// system telemetry) and falls back to runtime.NumCPU() if gopsutil can't
// determine it.
func EffectiveMaxWorkers(s *Settings) int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if s.MaxWorkers < n {
		return s.MaxWorkers
	}
	return n
}
