package swap

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

const poolEventsABI = `[
  {
    "anonymous": false,
    "name": "SwapV2",
    "type": "event",
    "inputs": [
      {"indexed": true,  "name": "sender",     "type": "address"},
      {"indexed": false, "name": "amount0In",  "type": "uint256"},
      {"indexed": false, "name": "amount1In",  "type": "uint256"},
      {"indexed": false, "name": "amount0Out", "type": "uint256"},
      {"indexed": false, "name": "amount1Out", "type": "uint256"},
      {"indexed": true,  "name": "to",         "type": "address"}
    ]
  },
  {
    "anonymous": false,
    "name": "SwapV3",
    "type": "event",
    "inputs": [
      {"indexed": true,  "name": "sender",       "type": "address"},
      {"indexed": true,  "name": "recipient",    "type": "address"},
      {"indexed": false, "name": "amount0",      "type": "int256"},
      {"indexed": false, "name": "amount1",      "type": "int256"},
      {"indexed": false, "name": "sqrtPriceX96", "type": "uint160"},
      {"indexed": false, "name": "liquidity",    "type": "uint128"},
      {"indexed": false, "name": "tick",         "type": "int24"}
    ]
  }
]`

// Both events are named "Swap" on chain. They are registered under distinct
// names here so one ABI can hold them; the topic hash is derived from RawName.
var (
	swapV2Event abi.Event
	swapV3Event abi.Event
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(poolEventsABI))
	if err != nil {
		panic(fmt.Sprintf("parse pool abi: %v", err))
	}
	swapV2Event = abi.NewEvent("Swap", "Swap", false, parsed.Events["SwapV2"].Inputs)
	swapV3Event = abi.NewEvent("Swap", "Swap", false, parsed.Events["SwapV3"].Inputs)
}

// SwapTopic returns the topic0 of the Swap event emitted by pools of kind.
func SwapTopic(kind domain.PoolKind) (common.Hash, error) {
	ev, err := eventFor(kind)
	if err != nil {
		return common.Hash{}, err
	}
	return ev.ID, nil
}

func eventFor(kind domain.PoolKind) (abi.Event, error) {
	switch kind {
	case domain.PoolKindUniswapV2:
		return swapV2Event, nil
	case domain.PoolKindUniswapV3:
		return swapV3Event, nil
	default:
		return abi.Event{}, fmt.Errorf("unsupported pool kind %q", kind)
	}
}
