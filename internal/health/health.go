// Package health provides monitor health reporting and the HTTP server that exposes it.
package health

import "github.com/vietddude/swapwatch/internal/core/domain"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Lag thresholds in blocks.
const (
	degradedLag = 10
	criticalLag = 100
)

// MonitorHealth contains health metrics for one pool monitor.
type MonitorHealth struct {
	ID         string              `json:"id"`
	ChatID     string              `json:"chat_id"`
	PoolID     string              `json:"pool_id"`
	Network    domain.ChainID      `json:"network"`
	State      domain.MonitorState `json:"state"`
	Status     SystemStatus        `json:"status"`
	BlockLag   uint64              `json:"block_lag"`
	Checkpoint uint64              `json:"checkpoint"`
	ChainHead  uint64              `json:"chain_head"`
	SeenCount  int                 `json:"seen_count"`
	LastError  string              `json:"last_error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus            `json:"system_status"`
	Monitors     []MonitorHealth         `json:"monitors"`
	Dependencies map[string]SystemStatus `json:"dependencies,omitempty"`
}

func evaluate(s domain.MonitorStatus) MonitorHealth {
	h := MonitorHealth{
		ID:         s.ID,
		ChatID:     s.ChatID,
		PoolID:     s.PoolID,
		Network:    s.Network,
		State:      s.State,
		Status:     StatusHealthy,
		BlockLag:   s.Lag(),
		Checkpoint: s.Checkpoint,
		ChainHead:  s.ChainHead,
		SeenCount:  s.SeenCount,
		LastError:  s.LastError,
	}

	switch {
	case s.State != domain.MonitorRunning || h.BlockLag > criticalLag:
		h.Status = StatusCritical
	case s.Degraded || h.BlockLag > degradedLag:
		h.Status = StatusDegraded
	}
	return h
}

// worst returns the more severe of two statuses.
func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
