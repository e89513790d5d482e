package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
	"github.com/vietddude/swapwatch/internal/infra/rpc/routing"
	"github.com/vietddude/swapwatch/internal/metrics"
)

// RPCClient is what chain adapters depend on.
type RPCClient interface {
	Execute(ctx context.Context, op Operation) (any, error)
}

// Client executes operations for one chain with retry and provider failover.
// Every failure it returns wraps domain.ErrNetwork.
type Client struct {
	chainID domain.ChainID
	router  routing.Router
	retry   routing.RetryConfig
	log     *slog.Logger
}

// NewClient creates a new RPC client.
func NewClient(chainID domain.ChainID, router routing.Router, retry routing.RetryConfig) *Client {
	return &Client{
		chainID: chainID,
		router:  router,
		retry:   retry,
		log:     slog.Default().With("chain", chainID),
	}
}

// Execute runs op against the chain's providers.
func (c *Client) Execute(ctx context.Context, op Operation) (any, error) {
	start := time.Now()
	result, err := routing.CallWithRetryAndFailover(ctx, c.router, c.chainID, op, c.retry)

	providerName := "unknown"
	if p, perr := c.router.GetProvider(c.chainID); perr == nil {
		providerName = p.GetName()
	}
	metrics.RPCCallsTotal.WithLabelValues(string(c.chainID), providerName, op.Name).Inc()
	metrics.RPCLatency.WithLabelValues(string(c.chainID), providerName, op.Name).
		Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(string(c.chainID), providerName, errorType(err)).Inc()
		c.log.Debug("rpc call failed", "method", op.Name, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrNetwork, op.Name, err)
	}
	return result, nil
}

// Call is a convenience wrapper around Execute.
func (c *Client) Call(ctx context.Context, method string, params []any) (any, error) {
	return c.Execute(ctx, NewHTTPOperation(method, params))
}

// ProviderHealth returns the health of every provider of the chain.
func (c *Client) ProviderHealth() map[string]provider.HealthStatus {
	out := make(map[string]provider.HealthStatus)
	for _, p := range c.router.GetAllProviders(c.chainID) {
		out[p.GetName()] = p.GetHealth()
	}
	return out
}

func errorType(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	switch routing.ClassifyError(err) {
	case routing.ActionFatal:
		return "fatal"
	case routing.ActionFailover:
		return "rate_limited"
	default:
		return "transient"
	}
}
