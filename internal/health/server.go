// Package health provides health check and monitoring for the service.
//
// This package implements:
//   - HTTP health check endpoint
//   - Uptime monitoring
//   - Record store connectivity reporting
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the application health status.
//
// Fields:
//   - Status: Overall health status ("healthy" or "unhealthy")
//   - Uptime: How long the application has been running
//   - Store: Kind of record store in use ("postgres" or "memory")
//   - LastCheckTime: When the store was last pinged
//   - LastCheckStatus: "ok" or the ping error
type Status struct {
	Status          string `json:"status"`
	Uptime          string `json:"uptime"`
	Store           string `json:"store"`
	LastCheckTime   string `json:"last_check_time"`
	LastCheckStatus string `json:"last_check_status"`
}

// Pinger is the part of the record store the monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks application health.
//
// Thread-safety:
//   - All fields are protected by RWMutex
//   - Safe for concurrent checks from multiple requests
type Monitor struct {
	startTime       time.Time
	storeKind       string
	lastCheckTime   time.Time
	lastCheckStatus string
	healthy         bool
	now             func() time.Time
	mu              sync.RWMutex
}

// NewMonitor creates a new health monitor for a store of the given kind.
func NewMonitor(storeKind string) *Monitor {
	return &Monitor{
		startTime:       time.Now(),
		storeKind:       storeKind,
		lastCheckStatus: "not started",
		healthy:         true,
		now:             time.Now,
	}
}

// UpdateCheckStatus records the outcome of a store ping.
func (m *Monitor) UpdateCheckStatus(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCheckTime = m.now()
	if err != nil {
		m.lastCheckStatus = err.Error()
		m.healthy = false
		return
	}
	m.lastCheckStatus = "ok"
	m.healthy = true
}

// GetStatus returns the current health status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := "healthy"
	if !m.healthy {
		status = "unhealthy"
	}
	var checked string
	if !m.lastCheckTime.IsZero() {
		checked = m.lastCheckTime.Format("2006-01-02 15:04:05")
	}
	return Status{
		Status:          status,
		Uptime:          m.now().Sub(m.startTime).Round(time.Second).String(),
		Store:           m.storeKind,
		LastCheckTime:   checked,
		LastCheckStatus: m.lastCheckStatus,
	}
}

// Handler pings store on every request and returns the status as JSON,
// with 503 when the store is unreachable.
//
// Example response:
//
//	{
//	  "status": "healthy",
//	  "uptime": "1h2m3s",
//	  "store": "postgres",
//	  "last_check_time": "2026-01-15 10:30:00",
//	  "last_check_status": "ok"
//	}
func (m *Monitor) Handler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		m.UpdateCheckStatus(store.Ping(ctx))

		status := m.GetStatus()
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
