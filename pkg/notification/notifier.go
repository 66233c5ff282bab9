package notification

import "context"

// Message is a single outbound notification
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to users. The signup backend uses it to
// send verification codes; whether a real email channel backs it is
// what the signup flow's emailConfigured flag reflects.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
