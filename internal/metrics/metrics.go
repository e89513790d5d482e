package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksProcessed tracks blocks covered by completed log fetches per pool
	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_blocks_processed_total",
			Help: "Total number of blocks scanned for swap events",
		},
		[]string{"chain", "pool"},
	)

	// SwapsNotified tracks delivered swap notifications
	SwapsNotified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_swaps_notified_total",
			Help: "Total number of swaps emitted to subscribers",
		},
		[]string{"chain", "pool", "direction"},
	)

	// MalformedEvents tracks logs that could not be decoded
	MalformedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_malformed_events_total",
			Help: "Total number of pool logs skipped as malformed",
		},
		[]string{"chain", "pool"},
	)

	// DeliveryErrors tracks failed notification sends
	DeliveryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_delivery_errors_total",
			Help: "Total number of failed notification deliveries",
		},
		[]string{"chain", "pool"},
	)

	// TickErrors tracks ticks aborted by network failures
	TickErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_tick_errors_total",
			Help: "Total number of monitor ticks that ended in a network error",
		},
		[]string{"chain", "pool"},
	)

	// RPCCallsTotal tracks RPC calls per chain and provider
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "provider", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per chain and provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"chain", "provider", "error_type"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapwatch_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "provider", "method"},
	)

	// ChainLatestBlock tracks the latest block height of the chain
	ChainLatestBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapwatch_chain_latest_block",
			Help: "Latest block height of the chain",
		},
		[]string{"chain"},
	)

	// MonitorCheckpoint tracks the last processed block per monitor
	MonitorCheckpoint = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapwatch_monitor_checkpoint_block",
			Help: "Last fully processed block of a pool monitor",
		},
		[]string{"chain", "pool", "chat"},
	)

	// ActiveMonitors tracks running monitors
	ActiveMonitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swapwatch_active_monitors",
			Help: "Number of running pool monitors",
		},
	)

	// DBConnectionPoolUsage tracks open connections as a percentage of the pool limit
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swapwatch_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
