package notification

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerNotifierEscalatesUnfulfilledOrders(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Send(context.Background(), Message{Kind: KindOrderUnfulfilled, Destination: "C1", Attrs: map[string]string{"order_id": "ORD-1"}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "order_id=ORD-1") {
		t.Fatalf("unexpected log line: %q", out)
	}
}

func TestNilLoggerNotifierIsNoop(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{Kind: KindOrderCompleted}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	_ = r.Send(context.Background(), Message{Kind: KindOrderCompleted})
	_ = r.Send(context.Background(), Message{Kind: KindOrderUnfulfilled})
	got := r.Messages()
	if len(got) != 2 || got[0].Kind != KindOrderCompleted || got[1].Kind != KindOrderUnfulfilled {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestLoggerNotifierEscalatesUnrecordedOrders(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	_ = n.Send(context.Background(), Message{Kind: KindOrderUnrecorded, Attrs: map[string]string{"fulfillment_id": "42"}})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "fulfillment_id=42") {
		t.Fatalf("unexpected log line: %q", out)
	}
}
