package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
	"github.com/vietddude/swapwatch/internal/metrics"
)

type EVMAdapter struct {
	chainID       domain.ChainID
	client        rpc.RPCClient
	maxBlockRange uint64
	log           *logger.Logger
}

func NewEVMAdapter(
	chainID domain.ChainID,
	client rpc.RPCClient,
	maxBlockRange uint64,
) *EVMAdapter {
	return &EVMAdapter{
		chainID:       chainID,
		client:        client,
		maxBlockRange: maxBlockRange,
		log:           logger.Default().With("chain", chainID),
	}
}

func (a *EVMAdapter) GetChainID() domain.ChainID {
	return a.chainID
}

func (a *EVMAdapter) MaxBlockRange() uint64 {
	return a.maxBlockRange
}

func (a *EVMAdapter) GetLatestBlock(ctx context.Context) (uint64, error) {
	op := rpc.NewHTTPOperation("eth_blockNumber", nil)
	result, err := a.client.Execute(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}

	blockHex, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("%w: invalid block number response %v", domain.ErrNetwork, result)
	}

	n, err := parseHexString(blockHex)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return n, nil
}

func (a *EVMAdapter) GetLogs(ctx context.Context, q chain.LogQuery) ([]types.Log, error) {
	if q.FromBlock > q.ToBlock {
		return nil, nil
	}
	if a.maxBlockRange > 0 && q.ToBlock-q.FromBlock+1 > a.maxBlockRange {
		return nil, fmt.Errorf("range %d-%d exceeds max block range %d", q.FromBlock, q.ToBlock, a.maxBlockRange)
	}

	filter := map[string]any{
		"address":   q.Address.Hex(),
		"fromBlock": hexutil.EncodeUint64(q.FromBlock),
		"toBlock":   hexutil.EncodeUint64(q.ToBlock),
	}
	if len(q.Topics) > 0 {
		filter["topics"] = q.Topics
	}

	op := rpc.NewHTTPOperationWithCost("eth_getLogs", []any{filter}, 5)
	result, err := a.client.Execute(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs %d-%d failed: %w", q.FromBlock, q.ToBlock, err)
	}
	if result == nil {
		return nil, nil
	}

	// entries are decoded one by one so a single bad entry cannot sink the range
	var entries []json.RawMessage
	if err := decodeResult(result, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode logs: %w", domain.ErrNetwork, err)
	}

	logs := make([]types.Log, 0, len(entries))
	for i, raw := range entries {
		var l types.Log
		if err := json.Unmarshal(raw, &l); err != nil {
			a.log.Warn("Dropping undecodable log entry",
				"pool", q.PoolID, "from", q.FromBlock, "to", q.ToBlock, "index", i, "error", err)
			metrics.MalformedEvents.WithLabelValues(string(a.chainID), q.PoolID).Inc()
			continue
		}
		// removed logs belong to a reorged-out block
		if l.Removed {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// GetBlockTimestamps fetches all headers in one batched request. Blocks whose
// header could not be read are logged and omitted; the first such failure is
// returned alongside the partial result.
func (a *EVMAdapter) GetBlockTimestamps(
	ctx context.Context,
	blocks []uint64,
) (map[uint64]time.Time, error) {
	out := make(map[uint64]time.Time, len(blocks))

	seen := make(map[uint64]struct{}, len(blocks))
	order := make([]uint64, 0, len(blocks))
	requests := make([]rpc.BatchRequest, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		order = append(order, b)
		requests = append(requests, rpc.BatchRequest{
			Method: "eth_getBlockByNumber",
			Params: []any{hexutil.EncodeUint64(b), false},
		})
	}
	if len(requests) == 0 {
		return out, nil
	}

	result, err := a.client.Execute(ctx, rpc.NewBatchOperation("eth_getBlockByNumber", requests))
	if err != nil {
		return out, fmt.Errorf("eth_getBlockByNumber batch failed: %w", err)
	}
	resps, ok := result.([]rpc.BatchResponse)
	if !ok || len(resps) != len(order) {
		return out, fmt.Errorf("%w: invalid batch response %T", domain.ErrNetwork, result)
	}

	var firstErr error
	for i, resp := range resps {
		blockNum := order[i]
		ts, err := blockTimestamp(blockNum, resp)
		if err != nil {
			a.log.Warn("Failed to fetch block timestamp", "block", blockNum, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[blockNum] = ts
	}
	return out, firstErr
}

func blockTimestamp(blockNumber uint64, resp rpc.BatchResponse) (time.Time, error) {
	if resp.Error != nil {
		return time.Time{}, fmt.Errorf("%w: block %d: %w", domain.ErrNetwork, blockNumber, resp.Error)
	}
	if resp.Result == nil {
		return time.Time{}, fmt.Errorf("%w: block %d not found", domain.ErrNetwork, blockNumber)
	}

	rawBlock, ok := resp.Result.(map[string]any)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid block format", domain.ErrNetwork)
	}

	ts, err := parseHexString(getString(rawBlock["timestamp"]))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: block %d timestamp: %w", domain.ErrNetwork, blockNumber, err)
	}
	return time.Unix(int64(ts), 0).UTC(), nil
}

// decodeResult converts a generic JSON-RPC result into a typed value.
func decodeResult(result any, out any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func parseHexString(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %q", hexStr)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("hex overflows uint64: %s", hexStr)
	}
	return n.Uint64(), nil
}

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
