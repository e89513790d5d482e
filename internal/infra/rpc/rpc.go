// Package rpc provides a resilient RPC client for EVM networks.
//
// This package offers:
//   - Multiple provider support per network
//   - Bounded retry with exponential backoff
//   - Failover to the next provider on rate limits or exhausted retries
//   - Health monitoring
//
// # Quick Start
//
//	import "github.com/vietddude/swapwatch/internal/infra/rpc"
//
//	router := rpc.NewRouter()
//	router.AddProvider("ethereum", rpc.NewHTTPProvider("llama", llamaURL, 10*time.Second))
//	router.AddProvider("ethereum", rpc.NewHTTPProvider("ankr", ankrURL, 10*time.Second))
//
//	client := rpc.NewClient("ethereum", router, rpc.DefaultRetryConfig)
//	result, err := client.Call(ctx, "eth_blockNumber", nil)
//
// # Package Structure
//
//   - provider/ - Provider implementations (HTTPProvider, monitoring)
//   - routing/  - Provider ordering, retry and failover
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"time"

	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
	"github.com/vietddude/swapwatch/internal/infra/rpc/routing"
)

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// BatchRequest represents a single request in a batch call.
type BatchRequest = provider.BatchRequest

// BatchResponse represents a single response from a batch call.
type BatchResponse = provider.BatchResponse

// Operation represents an RPC operation to execute.
type Operation = provider.Operation

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout)
}

// Router handles provider selection and health tracking.
type Router = routing.Router

// DefaultRouter implements provider ordering with a circuit breaker.
type DefaultRouter = routing.DefaultRouter

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// NewRouter creates a new router.
func NewRouter() *DefaultRouter {
	return routing.NewRouter()
}
