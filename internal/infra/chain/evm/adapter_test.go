package evm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
)

// MockClient implements rpc.RPCClient for testing
type MockClient struct {
	mu          sync.Mutex
	calls       []string
	ExecuteFunc func(ctx context.Context, method string, params any) (any, error)
}

func (m *MockClient) Execute(ctx context.Context, op rpc.Operation) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, op.Name)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		if op.Batch != nil {
			return m.ExecuteFunc(ctx, op.Name, op.Batch)
		}
		return m.ExecuteFunc(ctx, op.Name, op.Params)
	}
	return nil, nil
}

const poolAddr = "0xe092769bc1fa5262D4f48353f90890Dcc339BF80"

func rawLog(block, index uint64, removed bool) map[string]any {
	return map[string]any{
		"address":          poolAddr,
		"topics":           []any{"0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67"},
		"data":             "0x",
		"blockNumber":      fmt.Sprintf("0x%x", block),
		"transactionHash":  fmt.Sprintf("0x%064x", block*100+index),
		"transactionIndex": "0x0",
		"blockHash":        fmt.Sprintf("0x%064x", block),
		"logIndex":         fmt.Sprintf("0x%x", index),
		"removed":          removed,
	}
}

func TestEVMAdapter_GetLatestBlock(t *testing.T) {
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			if method == "eth_blockNumber" {
				return "0x12d687", nil // 1234567 in hex
			}
			return nil, nil
		},
	}

	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)
	height, err := adapter.GetLatestBlock(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if height != 1234567 {
		t.Errorf("expected height 1234567, got %d", height)
	}
}

func TestEVMAdapter_GetLatestBlock_InvalidResponse(t *testing.T) {
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			return 42, nil
		},
	}

	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)
	_, err := adapter.GetLatestBlock(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestEVMAdapter_GetLogs(t *testing.T) {
	var gotFilter map[string]any
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			if method != "eth_getLogs" {
				return nil, fmt.Errorf("unexpected method %s", method)
			}
			gotFilter = params.([]any)[0].(map[string]any)
			return []any{rawLog(97, 3, false), rawLog(98, 0, true), rawLog(99, 1, false)}, nil
		},
	}

	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)
	logs, err := adapter.GetLogs(context.Background(), chain.LogQuery{
		Address:   common.HexToAddress(poolAddr),
		FromBlock: 96,
		ToBlock:   100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotFilter["fromBlock"] != "0x60" || gotFilter["toBlock"] != "0x64" {
		t.Errorf("unexpected range in filter: %v", gotFilter)
	}
	if _, ok := gotFilter["topics"]; ok {
		t.Error("expected no topics in filter")
	}

	if len(logs) != 2 {
		t.Fatalf("expected 2 logs (removed dropped), got %d", len(logs))
	}
	if logs[0].BlockNumber != 97 || logs[0].Index != 3 {
		t.Errorf("unexpected first log position %d:%d", logs[0].BlockNumber, logs[0].Index)
	}
	if logs[1].BlockNumber != 99 || logs[1].Index != 1 {
		t.Errorf("unexpected second log position %d:%d", logs[1].BlockNumber, logs[1].Index)
	}
	if logs[0].Address != common.HexToAddress(poolAddr) {
		t.Errorf("unexpected address %s", logs[0].Address.Hex())
	}
}

func TestEVMAdapter_GetLogs_RangeTooWide(t *testing.T) {
	mock := &MockClient{}
	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 10)

	_, err := adapter.GetLogs(context.Background(), chain.LogQuery{FromBlock: 1, ToBlock: 11})
	if err == nil {
		t.Fatal("expected error for range wider than max")
	}
	if len(mock.calls) != 0 {
		t.Errorf("expected no rpc calls, got %v", mock.calls)
	}
}

func TestEVMAdapter_GetLogs_PropagatesNetworkError(t *testing.T) {
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			return nil, fmt.Errorf("%w: eth_getLogs: timeout", domain.ErrNetwork)
		},
	}
	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)

	_, err := adapter.GetLogs(context.Background(), chain.LogQuery{FromBlock: 1, ToBlock: 2})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestEVMAdapter_GetLogs_DropsUndecodableEntry(t *testing.T) {
	broken := rawLog(99, 0, false)
	delete(broken, "transactionHash")

	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			return []any{rawLog(97, 1, false), broken, rawLog(100, 2, false)}, nil
		},
	}
	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)

	logs, err := adapter.GetLogs(context.Background(), chain.LogQuery{
		PoolID:    "emp-eth",
		Address:   common.HexToAddress(poolAddr),
		FromBlock: 96,
		ToBlock:   100,
	})
	if err != nil {
		t.Fatalf("a bad entry must not fail the range: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected the 2 good logs, got %d", len(logs))
	}
	if logs[0].BlockNumber != 97 || logs[1].BlockNumber != 100 {
		t.Errorf("unexpected blocks %d, %d", logs[0].BlockNumber, logs[1].BlockNumber)
	}
}

func TestEVMAdapter_GetLogs_NonArrayResult(t *testing.T) {
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			return map[string]any{"unexpected": true}, nil
		},
	}
	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)

	_, err := adapter.GetLogs(context.Background(), chain.LogQuery{FromBlock: 1, ToBlock: 2})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestEVMAdapter_GetBlockTimestamps(t *testing.T) {
	var batch []rpc.BatchRequest
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			batch = params.([]rpc.BatchRequest)
			resps := make([]rpc.BatchResponse, len(batch))
			for i, req := range batch {
				switch req.Params[0] {
				case "0x61":
					resps[i] = rpc.BatchResponse{Result: map[string]any{"number": "0x61", "timestamp": "0x65a0bc00"}}
				case "0x63":
					resps[i] = rpc.BatchResponse{Error: errors.New("rpc error -32000: header not found")}
				}
			}
			return resps, nil
		},
	}

	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)
	got, err := adapter.GetBlockTimestamps(context.Background(), []uint64{97, 97, 99})
	if err == nil {
		t.Error("expected partial failure error")
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 timestamp, got %d", len(got))
	}
	if ts := got[97]; ts.Unix() != 0x65a0bc00 {
		t.Errorf("unexpected timestamp %v", ts)
	}
	if _, ok := got[99]; ok {
		t.Error("failed block should be omitted")
	}
	if len(mock.calls) != 1 {
		t.Errorf("expected one batched call, got %d", len(mock.calls))
	}
	if len(batch) != 2 {
		t.Errorf("expected duplicate blocks requested once, got %d requests", len(batch))
	}
}

func TestEVMAdapter_GetBlockTimestamps_BatchFailure(t *testing.T) {
	mock := &MockClient{
		ExecuteFunc: func(ctx context.Context, method string, params any) (any, error) {
			return nil, fmt.Errorf("%w: boom", domain.ErrNetwork)
		},
	}
	adapter := NewEVMAdapter(domain.ChainEthereum, mock, 2000)

	got, err := adapter.GetBlockTimestamps(context.Background(), []uint64{1})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}

	none, err := adapter.GetBlockTimestamps(context.Background(), nil)
	if err != nil || len(none) != 0 {
		t.Errorf("no blocks should need no call, got %v %v", none, err)
	}
}

func TestParseHexString(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x0", 0, false},
		{"0x0a", 10, false},
		{"0x12d687", 1234567, false},
		{"zz", 0, true},
		{"0x10000000000000000", 0, true},
	}
	for _, tt := range tests {
		got, err := parseHexString(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHexString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHexString(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
