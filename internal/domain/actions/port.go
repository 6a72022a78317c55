package actions

import "context"

// Kind identifies a downstream action receiver
type Kind string

const (
	KindEscalate  Kind = "escalate"
	KindRiskAlert Kind = "risk_alert"
	KindLogAlert  Kind = "log_alert"
)

// Dispatcher performs one side-effecting call to a downstream receiver with
// a bounded timeout. No retry; each call is attempted exactly once per
// triggering event.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind Kind, payload any) error

	// DispatchAsync hands the call to a bounded background pool and returns
	// immediately. The outcome is discarded by contract.
	DispatchAsync(kind Kind, payload any)
}
