package finding

import "errors"

// Sentinel errors for common scan failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrTargetUnreachable indicates the target refused or dropped every
	// first-contact probe (DNS failure, connection refused, etc.).
	ErrTargetUnreachable = errors.New("finding: target unreachable")

	// ErrNoPayloads indicates no payloads were available for the
	// requested vulnerability classes.
	ErrNoPayloads = errors.New("finding: no payloads available")
)
