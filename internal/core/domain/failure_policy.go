package domain

import "strings"

// FailurePolicyMode enumerates how cache-dependent guards behave when the backing store is unavailable.
type FailurePolicyMode string

const (
	// FailurePolicyModeOpen lets requests through when the store cannot be consulted.
	FailurePolicyModeOpen FailurePolicyMode = "open"
	// FailurePolicyModeClosed rejects requests when the store cannot be consulted.
	FailurePolicyModeClosed FailurePolicyMode = "closed"
)

// FailurePolicy centralises the fallback decision for the rate limiter.
type FailurePolicy struct {
	mode FailurePolicyMode
}

// NewFailurePolicy constructs a policy with the provided mode, defaulting to open when unspecified.
func NewFailurePolicy(mode FailurePolicyMode) FailurePolicy {
	if mode != FailurePolicyModeClosed {
		mode = FailurePolicyModeOpen
	}
	return FailurePolicy{mode: mode}
}

// ParseFailurePolicyMode normalises textual input into a supported policy mode.
func ParseFailurePolicyMode(value string) FailurePolicyMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(FailurePolicyModeClosed), "strict":
		return FailurePolicyModeClosed
	default:
		return FailurePolicyModeOpen
	}
}

// Mode returns the underlying policy mode.
func (p FailurePolicy) Mode() FailurePolicyMode {
	if p.mode == "" {
		return FailurePolicyModeOpen
	}
	return p.mode
}

// FailsOpen indicates whether requests proceed when the store errors.
func (p FailurePolicy) FailsOpen() bool {
	return p.Mode() == FailurePolicyModeOpen
}
