// Package provider implements RPC provider interfaces.
//
// This package contains:
//   - Provider interface: core abstraction for RPC endpoints
//   - HTTPProvider: JSON-RPC over HTTP implementation
//   - ProviderMonitor: health and rate tracking
package provider

import (
	"context"
	"time"
)

// Operation represents an RPC operation to execute.
type Operation struct {
	// Name identifies the operation (e.g., "eth_blockNumber", "eth_getLogs")
	Name string

	// Cost is the quota cost for this operation (default 1)
	Cost int

	// Params for JSON-RPC calls. This should be []any or nil.
	Params any

	// Batch, when set, is sent as one JSON-RPC batch instead of Name/Params.
	// The result is then a []BatchResponse in request order.
	Batch []BatchRequest
}

// Provider defines the core interface for any RPC provider.
// It serves as the base abstraction for health checking and lifecycle management.
type Provider interface {
	// GetName returns provider identifier (e.g., "alchemy", "infura")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// HasCapacity checks if the provider has capacity for the given cost
	HasCapacity(cost int) bool

	// Execute performs the operation with monitoring and error handling
	Execute(ctx context.Context, op Operation) (any, error)

	// Close cleans up resources
	Close() error
}

// BatchRequest represents a single request in a batch call.
type BatchRequest struct {
	Method string
	Params []any
}

// BatchResponse represents a single response from a batch call.
type BatchResponse struct {
	Result any
	Error  error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}

// paramsOf normalizes Operation.Params for JSON-RPC.
func paramsOf(op Operation) []any {
	switch p := op.Params.(type) {
	case nil:
		return []any{}
	case []any:
		return p
	default:
		return []any{p}
	}
}
