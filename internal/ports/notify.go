package ports

import "context"

// EventEmitter receives change events as fire-and-forget calls after
// the owning mutation has been persisted. Implementations must not
// block the caller on delivery.
type EventEmitter interface {
	Emit(name string, payload any)
}

// Mailer delivers notification mail. Failures are the adapter's and the
// caller's to log; they never unwind the mutation that triggered the
// mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
