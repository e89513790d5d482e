package swap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// Decoder turns raw pool logs into swap records.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes l as the Swap event of pool. Any shape mismatch returns an
// error wrapping domain.ErrMalformedEvent; the caller skips that log only.
func (d *Decoder) Decode(pool domain.PoolConfig, l types.Log) (*domain.SwapRecord, error) {
	event, err := eventFor(pool.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}

	if len(l.Topics) != 3 {
		return nil, fmt.Errorf("%w: expected 3 topics, got %d", domain.ErrMalformedEvent, len(l.Topics))
	}
	if l.Topics[0] != event.ID {
		return nil, fmt.Errorf("%w: unexpected event signature %s", domain.ErrMalformedEvent, l.Topics[0].Hex())
	}

	nonIndexed := event.Inputs.NonIndexed()
	if want := 32 * len(nonIndexed); len(l.Data) != want {
		return nil, fmt.Errorf("%w: data length %d, want %d", domain.ErrMalformedEvent, len(l.Data), want)
	}

	fields := make(map[string]any, len(nonIndexed))
	if err := nonIndexed.UnpackIntoMap(fields, l.Data); err != nil {
		return nil, fmt.Errorf("%w: unpack data: %w", domain.ErrMalformedEvent, err)
	}

	rec := &domain.SwapRecord{
		TxHash:      l.TxHash.Hex(),
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
		Sender:      topicAddress(l.Topics[1]),
		Recipient:   topicAddress(l.Topics[2]),
	}

	switch pool.Kind {
	case domain.PoolKindUniswapV2:
		err = fillV2(rec, fields)
	case domain.PoolKindUniswapV3:
		err = fillV3(rec, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}
	return rec, nil
}

func fillV2(rec *domain.SwapRecord, fields map[string]any) error {
	var err error
	if rec.Amount0In, err = bigField(fields, "amount0In"); err != nil {
		return err
	}
	if rec.Amount1In, err = bigField(fields, "amount1In"); err != nil {
		return err
	}
	if rec.Amount0Out, err = bigField(fields, "amount0Out"); err != nil {
		return err
	}
	if rec.Amount1Out, err = bigField(fields, "amount1Out"); err != nil {
		return err
	}
	return nil
}

// fillV3 splits the pool's signed deltas: positive flows into the pool, negative out.
func fillV3(rec *domain.SwapRecord, fields map[string]any) error {
	amount0, err := bigField(fields, "amount0")
	if err != nil {
		return err
	}
	amount1, err := bigField(fields, "amount1")
	if err != nil {
		return err
	}
	rec.Amount0In, rec.Amount0Out = splitSigned(amount0)
	rec.Amount1In, rec.Amount1Out = splitSigned(amount1)
	return nil
}

func splitSigned(v *big.Int) (in, out *big.Int) {
	in, out = new(big.Int), new(big.Int)
	switch v.Sign() {
	case 1:
		in.Set(v)
	case -1:
		out.Neg(v)
	}
	return in, out
}

func bigField(fields map[string]any, name string) (*big.Int, error) {
	v, ok := fields[name].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("field %s missing or not an integer", name)
	}
	return v, nil
}

func topicAddress(h common.Hash) string {
	return common.BytesToAddress(h.Bytes()[12:]).Hex()
}
