// Package routing handles provider selection and failover logic.
//
// This package contains:
//   - Router: interface for provider selection and health tracking
//   - DefaultRouter: implementation with a simple circuit breaker
//   - Retry: retry logic with exponential backoff and failover
package routing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
)

// Router handles provider selection and health tracking.
type Router interface {
	// AddProvider registers a provider for a specific chain
	AddProvider(chainID domain.ChainID, p provider.Provider)

	// GetProvider returns the best available provider for a chain
	GetProvider(chainID domain.ChainID) (provider.Provider, error)

	// GetAllProviders returns all providers for a chain, best first
	GetAllProviders(chainID domain.ChainID) []provider.Provider

	// RecordSuccess tracks successful calls
	RecordSuccess(providerName string, latency time.Duration)

	// RecordFailure tracks failed calls
	RecordFailure(providerName string, err error)
}

type providerMetrics struct {
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	consecutiveFails int
	circuitOpen      bool
}

// circuitCooldown is how long an open circuit keeps a provider at the back of the list.
const circuitCooldown = 30 * time.Second

// DefaultRouter orders providers by circuit state, then registration order.
type DefaultRouter struct {
	mu             sync.RWMutex
	chainProviders map[domain.ChainID][]provider.Provider
	providerHealth map[string]*providerMetrics
}

// NewRouter creates a new router.
func NewRouter() *DefaultRouter {
	return &DefaultRouter{
		chainProviders: make(map[domain.ChainID][]provider.Provider),
		providerHealth: make(map[string]*providerMetrics),
	}
}

// AddProvider registers a provider for a chain.
func (r *DefaultRouter) AddProvider(chainID domain.ChainID, p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chainProviders[chainID] = append(r.chainProviders[chainID], p)
	r.providerHealth[p.GetName()] = &providerMetrics{
		lastSuccessAt: time.Now(),
	}
}

// GetProvider returns the best available provider for a chain.
func (r *DefaultRouter) GetProvider(chainID domain.ChainID) (provider.Provider, error) {
	providers := r.GetAllProviders(chainID)
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers for chain %s", chainID)
	}
	return providers[0], nil
}

// GetAllProviders returns all providers for a chain. Providers with a closed
// circuit that report themselves available come first.
func (r *DefaultRouter) GetAllProviders(chainID domain.ChainID) []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := r.chainProviders[chainID]
	result := make([]provider.Provider, len(providers))
	copy(result, providers)

	rank := func(p provider.Provider) int {
		m := r.providerHealth[p.GetName()]
		if m != nil && m.circuitOpen && time.Since(m.lastFailureAt) < circuitCooldown {
			return 2
		}
		if !p.IsAvailable() {
			return 1
		}
		return 0
	}
	sort.SliceStable(result, func(i, j int) bool {
		return rank(result[i]) < rank(result[j])
	})
	return result
}

// RecordSuccess records a successful call.
func (r *DefaultRouter) RecordSuccess(providerName string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	metrics.successCount++
	metrics.totalLatency += latency
	metrics.lastSuccessAt = time.Now()
	metrics.consecutiveFails = 0
	metrics.circuitOpen = false
}

// RecordFailure records a failed call.
func (r *DefaultRouter) RecordFailure(providerName string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	metrics.failureCount++
	metrics.lastFailureAt = time.Now()
	metrics.consecutiveFails++

	if metrics.consecutiveFails >= 5 {
		metrics.circuitOpen = true
	}
}
