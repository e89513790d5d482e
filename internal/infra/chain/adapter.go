package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// LogQuery selects logs of one contract over an inclusive block range.
type LogQuery struct {
	// PoolID labels dropped entries in logs and metrics
	PoolID    string
	Address   common.Address
	Topics    [][]common.Hash
	FromBlock uint64
	ToBlock   uint64
}

// Adapter defines the chain-level execution interface used by pool monitors.
// All methods return errors wrapping domain.ErrNetwork when the chain could not be reached.
type Adapter interface {
	// GetLatestBlock returns the latest block number on the chain
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetLogs returns matching logs in the range. The range must not exceed MaxBlockRange.
	GetLogs(ctx context.Context, q LogQuery) ([]types.Log, error)

	// GetBlockTimestamps returns the timestamp of each requested block.
	// Blocks that could not be fetched are missing from the result.
	GetBlockTimestamps(ctx context.Context, blocks []uint64) (map[uint64]time.Time, error)

	// GetChainID returns the chain identifier
	GetChainID() domain.ChainID

	// MaxBlockRange is the widest range accepted by GetLogs
	MaxBlockRange() uint64
}
