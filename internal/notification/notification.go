package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindOrderCompleted indicates an order was charged and fulfilled.
	KindOrderCompleted = "order_completed"
	// KindOrderUnfulfilled indicates an order was charged but fulfillment failed.
	// Operators use it to reconcile the client's balance by hand.
	KindOrderUnfulfilled = "order_unfulfilled"
	// KindOrderUnrecorded indicates an order was charged and fulfilled but its
	// completion could not be stored, so the row is still PENDING.
	KindOrderUnrecorded = "order_unrecorded"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
	Attrs       map[string]string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger. Messages that need an
// operator are logged at warn level.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	level := slog.LevelInfo
	if message.Kind == KindOrderUnfulfilled || message.Kind == KindOrderUnrecorded {
		level = slog.LevelWarn
	}
	args := []any{"kind", message.Kind, "destination", message.Destination, "body", message.Body}
	for k, v := range message.Attrs {
		args = append(args, k, v)
	}
	n.logger.Log(ctx, level, "notification", args...)
	return nil
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send records the message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
