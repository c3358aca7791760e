// Package models provides the core data structures shared across the
// notification pipeline: the inbound event envelope, the normalized event,
// and the invocation result surfaced to the caller.
package models

// Outcome is the terminal state of one pipeline invocation.
type Outcome string

// The terminal outcomes of an invocation.
const (
	// OutcomeIgnored marks an event outside the supported set. It is a
	// success from the routing layer's point of view.
	OutcomeIgnored Outcome = "Ignored"
	// OutcomeDelivered marks a successfully posted notification.
	OutcomeDelivered Outcome = "Delivered"
	// OutcomeFailedRetryable marks a transient infrastructure fault; the
	// routing layer may re-invoke.
	OutcomeFailedRetryable Outcome = "FailedRetryable"
	// OutcomeFailedPermanent marks a configuration or data problem that
	// retrying will not fix.
	OutcomeFailedPermanent Outcome = "FailedPermanent"
)

// Result is the structured outcome of processing a single event.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Action     string  `json:"action,omitempty"`
	ResourceID string  `json:"resourceId,omitempty"`
}

// Retryable reports whether the routing layer should re-invoke.
func (r *Result) Retryable() bool {
	return r.Outcome == OutcomeFailedRetryable
}
