package main

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/jettag/pkg/metrics"
)

const (
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// startSystemMetricsUpdater refreshes process metrics every
// systemMetricsInterval until ctx is done. It blocks.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// PauseNs is a ring buffer indexed by GC cycle.
		last := m.PauseNs[(m.NumGC+255)%uint32(len(m.PauseNs))]
		metrics.RecordSystemGCPauseTime(float64(last) / nanosecondsPerMillisecond)
	}
}
