// README: Chat transport boundary types (replies, admin notifier).
package chat

import "context"

// Reply is text the transport should send back to the originating chat.
// Ephemeral replies are confirmations the transport may delete after a
// short delay; the core never schedules or waits on that deletion.
type Reply struct {
	Text      string
	Ephemeral bool
}

// Notifier pushes side-channel alerts (escalations) to administrators.
// Delivery is best-effort: a failure is logged and never rolls back the
// store mutation that triggered it.
type Notifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, text string) error

func (f NotifierFunc) NotifyAdmins(ctx context.Context, text string) error {
	return f(ctx, text)
}
