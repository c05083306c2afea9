// Package health reports a liveness snapshot of the relay process itself:
// uptime, goroutine count, live connection count and process resource
// usage.
package health

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Status represents the health status of the server
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// ServerHealth represents overall server health
type ServerHealth struct {
	Status            Status    `json:"status"`
	Uptime            int64     `json:"uptime_seconds"`
	Timestamp         time.Time `json:"timestamp"`
	ActiveConnections int       `json:"active_connections"`
	Goroutines        int       `json:"goroutines"`
	CPUPercent        float64   `json:"cpu_percent"`
	RSSBytes          uint64    `json:"rss_bytes"`
}

// Monitor tracks server health metrics
type Monitor struct {
	startTime time.Time
	proc      *process.Process
}

// NewMonitor creates a new health monitor bound to the current process.
func NewMonitor() *Monitor {
	m := &Monitor{
		startTime: time.Now(),
	}
	// Process stats are best effort; the snapshot still carries uptime
	// and goroutine counts when the handle is unavailable.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		m.proc = p
	}
	return m
}

// GetHealth returns the current server health
func (m *Monitor) GetHealth(activeConnections int) *ServerHealth {
	h := &ServerHealth{
		Status:            StatusHealthy,
		Uptime:            int64(time.Since(m.startTime).Seconds()),
		Timestamp:         time.Now(),
		ActiveConnections: activeConnections,
		Goroutines:        runtime.NumGoroutine(),
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			h.CPUPercent = cpu
		}
		if mem, err := m.proc.MemoryInfo(); err == nil {
			h.RSSBytes = mem.RSS
		}
	} else {
		h.Status = StatusDegraded
	}

	return h
}
