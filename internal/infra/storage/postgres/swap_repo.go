package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
)

// SwapRepo implements storage.SwapRepository using PostgreSQL.
type SwapRepo struct {
	db *DB
}

// NewSwapRepo creates a new PostgreSQL swap repository.
func NewSwapRepo(db *DB) *SwapRepo {
	return &SwapRepo{db: db}
}

var _ storage.SwapRepository = (*SwapRepo)(nil)

type swapRow struct {
	PoolID      string              `db:"pool_id"`
	Network     string              `db:"network"`
	TxHash      string              `db:"tx_hash"`
	LogIndex    int64               `db:"log_index"`
	BlockNumber int64               `db:"block_number"`
	Sender      string              `db:"sender"`
	Recipient   string              `db:"recipient"`
	Direction   string              `db:"direction"`
	BaseSymbol  string              `db:"base_symbol"`
	QuoteSymbol string              `db:"quote_symbol"`
	Amount0In   decimal.Decimal     `db:"amount0_in"`
	Amount1In   decimal.Decimal     `db:"amount1_in"`
	Amount0Out  decimal.Decimal     `db:"amount0_out"`
	Amount1Out  decimal.Decimal     `db:"amount1_out"`
	BaseAmount  decimal.Decimal     `db:"base_amount"`
	QuoteAmount decimal.Decimal     `db:"quote_amount"`
	ETHValue    decimal.NullDecimal `db:"eth_value"`
	USDValue    decimal.NullDecimal `db:"usd_value"`
	BlockTime   time.Time           `db:"block_time"`
}

// Save inserts a swap. A swap already stored for the pool is ignored.
func (r *SwapRepo) Save(ctx context.Context, s *domain.ClassifiedSwap) error {
	row := swapRow{
		PoolID:      s.PoolID,
		Network:     string(s.Network),
		TxHash:      s.TxHash,
		LogIndex:    int64(s.LogIndex),
		BlockNumber: int64(s.BlockNumber),
		Sender:      s.Sender,
		Recipient:   s.Recipient,
		Direction:   string(s.Direction),
		BaseSymbol:  s.BaseSymbol,
		QuoteSymbol: s.QuoteSymbol,
		Amount0In:   fromBig(s.Amount0In),
		Amount1In:   fromBig(s.Amount1In),
		Amount0Out:  fromBig(s.Amount0Out),
		Amount1Out:  fromBig(s.Amount1Out),
		BaseAmount:  s.BaseAmount,
		QuoteAmount: s.QuoteAmount,
		BlockTime:   s.Timestamp,
	}
	if s.ETHValue != nil {
		row.ETHValue = decimal.NewNullDecimal(*s.ETHValue)
	}
	if s.USDValue != nil {
		row.USDValue = decimal.NewNullDecimal(*s.USDValue)
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO swaps (
			pool_id, network, tx_hash, log_index, block_number, sender, recipient,
			direction, base_symbol, quote_symbol,
			amount0_in, amount1_in, amount0_out, amount1_out,
			base_amount, quote_amount, eth_value, usd_value, block_time
		) VALUES (
			:pool_id, :network, :tx_hash, :log_index, :block_number, :sender, :recipient,
			:direction, :base_symbol, :quote_symbol,
			:amount0_in, :amount1_in, :amount0_out, :amount1_out,
			:base_amount, :quote_amount, :eth_value, :usd_value, :block_time
		)
		ON CONFLICT (pool_id, tx_hash, log_index) DO NOTHING`, row)
	if err != nil {
		return fmt.Errorf("failed to save swap: %w", err)
	}
	return nil
}

// ListRecent returns up to limit swaps of a pool, newest first.
func (r *SwapRepo) ListRecent(ctx context.Context, poolID string, limit int) ([]*domain.ClassifiedSwap, error) {
	var rows []swapRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT pool_id, network, tx_hash, log_index, block_number, sender, recipient,
		       direction, base_symbol, quote_symbol,
		       amount0_in, amount1_in, amount0_out, amount1_out,
		       base_amount, quote_amount, eth_value, usd_value, block_time
		FROM swaps
		WHERE pool_id = $1
		ORDER BY block_number DESC, log_index DESC
		LIMIT $2`, poolID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps: %w", err)
	}

	out := make([]*domain.ClassifiedSwap, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (row swapRow) toDomain() *domain.ClassifiedSwap {
	s := &domain.ClassifiedSwap{
		SwapRecord: domain.SwapRecord{
			TxHash:      row.TxHash,
			BlockNumber: uint64(row.BlockNumber),
			LogIndex:    uint(row.LogIndex),
			Sender:      row.Sender,
			Recipient:   row.Recipient,
			Amount0In:   row.Amount0In.BigInt(),
			Amount1In:   row.Amount1In.BigInt(),
			Amount0Out:  row.Amount0Out.BigInt(),
			Amount1Out:  row.Amount1Out.BigInt(),
			Timestamp:   row.BlockTime.UTC(),
		},
		PoolID:      row.PoolID,
		Network:     domain.ChainID(row.Network),
		Direction:   domain.Direction(row.Direction),
		BaseSymbol:  row.BaseSymbol,
		QuoteSymbol: row.QuoteSymbol,
		BaseAmount:  row.BaseAmount,
		QuoteAmount: row.QuoteAmount,
	}
	if row.ETHValue.Valid {
		v := row.ETHValue.Decimal
		s.ETHValue = &v
	}
	if row.USDValue.Valid {
		v := row.USDValue.Decimal
		s.USDValue = &v
	}
	return s
}

func fromBig(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}
