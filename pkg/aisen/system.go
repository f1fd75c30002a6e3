// system.go captures system state at capture time.

package aisen

import (
	"os"
	"runtime"
	"time"
)

// SystemState captures system metrics at the time of an event.
type SystemState struct {
	// MemoryBytes is the current heap allocation in bytes.
	MemoryBytes int64

	// GoroutineCount is the number of active goroutines.
	GoroutineCount int

	// UptimeMs is the process uptime in milliseconds.
	UptimeMs int64

	// HostName is the hostname of the machine where the event occurred.
	HostName string
}

// CaptureSystemState captures system metrics at the current moment.
// The startTime parameter is used to calculate process uptime.
func CaptureSystemState(startTime time.Time) *SystemState {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hostname, _ := os.Hostname() // Ignore error, empty hostname is acceptable

	uptimeMs := time.Since(startTime).Milliseconds()
	if uptimeMs < 0 {
		uptimeMs = 0 // Clamp to 0 if start time is in the future
	}

	return &SystemState{
		MemoryBytes:    int64(memStats.Alloc),
		GoroutineCount: runtime.NumGoroutine(),
		UptimeMs:       uptimeMs,
		HostName:       hostname,
	}
}

// Contexts returns the state as event contexts: runtime, os, device and app.
func (s *SystemState) Contexts() map[string]map[string]any {
	return map[string]map[string]any{
		"runtime": {
			"name":    "go",
			"version": runtime.Version(),
		},
		"os": {
			"name": runtime.GOOS,
		},
		"device": {
			"arch":         runtime.GOARCH,
			"num_cpu":      runtime.NumCPU(),
			"memory_bytes": s.MemoryBytes,
		},
		"app": {
			"goroutine_count": s.GoroutineCount,
			"uptime_ms":       s.UptimeMs,
		},
	}
}
