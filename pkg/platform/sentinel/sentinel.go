package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Transports and stores return
// these (optionally wrapped) so callers can test for them with errors.Is
// without knowing which layer failed.
//
// For bad input, use pkg/domain-errors directly.
var (
	// ErrUnavailable means a dependency is known to be down and was not called.
	ErrUnavailable = errors.New("unavailable")
)
