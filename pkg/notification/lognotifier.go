package notification

import (
	"context"
	"log/slog"
	"sync"
)

// LogNotifier writes messages to the log instead of delivering them.
// It backs deployments without a configured email channel and tests.
type LogNotifier struct {
	mu   sync.Mutex
	sent []Message
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	slog.Info("Notification (log only)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

// Sent returns the messages recorded so far.
func (n *LogNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.sent))
	copy(out, n.sent)
	return out
}
