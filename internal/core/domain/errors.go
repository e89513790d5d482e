package domain

import "errors"

var (
	// ErrNetwork marks a failed or exhausted RPC call. The caller retries on the next tick.
	ErrNetwork = errors.New("network error")

	// ErrMalformedEvent marks a log that cannot be decoded as a swap.
	ErrMalformedEvent = errors.New("malformed event")

	ErrAlreadyRunning = errors.New("monitor already running")
	ErrNotRunning     = errors.New("monitor not running")

	// ErrDelivery marks a failed notification send.
	ErrDelivery = errors.New("delivery failed")

	ErrUnknownPool = errors.New("unknown pool")
)
