package poll

import "errors"

// Failure classes for probe and metric-fetch errors. Per-metric and
// per-device failures are logged and isolated, never allowed to abort a
// cycle; only ErrConfiguration halts a cycle early.
var (
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransport        = errors.New("transport error")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotNumeric       = errors.New("non-numeric metric value")
)
