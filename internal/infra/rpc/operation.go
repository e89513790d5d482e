package rpc

import (
	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
)

// NewHTTPOperation creates an Operation for HTTP JSON-RPC calls.
// HTTPProvider will use Name and Params directly with its Call method.
func NewHTTPOperation(method string, params any) Operation {
	return provider.Operation{
		Name:   method,
		Cost:   1,
		Params: params,
	}
}

// NewHTTPOperationWithCost creates an HTTP Operation with custom cost.
func NewHTTPOperationWithCost(method string, params any, cost int) Operation {
	return provider.Operation{
		Name:   method,
		Cost:   cost,
		Params: params,
	}
}

// NewBatchOperation sends requests as one JSON-RPC batch. name labels the
// operation in metrics and errors; each request costs one unit.
func NewBatchOperation(name string, requests []BatchRequest) Operation {
	return provider.Operation{
		Name:  name,
		Cost:  len(requests),
		Batch: requests,
	}
}
