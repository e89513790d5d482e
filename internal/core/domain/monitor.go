package domain

import "time"

// MonitorState is the lifecycle state of a pool monitor.
type MonitorState string

const (
	MonitorStopped  MonitorState = "stopped"
	MonitorStarting MonitorState = "starting"
	MonitorRunning  MonitorState = "running"
	MonitorStopping MonitorState = "stopping"
)

// MonitorStatus is a point-in-time snapshot of one monitor.
type MonitorStatus struct {
	ID            string       `json:"id"`
	ChatID        string       `json:"chat_id"`
	PoolID        string       `json:"pool_id"`
	Network       ChainID      `json:"network"`
	State         MonitorState `json:"state"`
	Degraded      bool         `json:"degraded"`
	LastError     string       `json:"last_error,omitempty"`
	Checkpoint    uint64       `json:"checkpoint"`
	CheckpointAt  time.Time    `json:"checkpoint_at"` // when the checkpoint last moved
	ChainHead     uint64       `json:"chain_head"`
	SeenCount     int          `json:"seen_count"`
	StartedAt     time.Time    `json:"started_at"`
	LastTickAt    time.Time    `json:"last_tick_at"`
	SwapsNotified int          `json:"swaps_notified"`
}

// Lag is the number of blocks the monitor trails the chain head.
func (s MonitorStatus) Lag() uint64 {
	if s.ChainHead <= s.Checkpoint {
		return 0
	}
	return s.ChainHead - s.Checkpoint
}
