package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	b := NewBus(zap.NewNop())

	var got atomic.Int64
	b.Subscribe("test.topic", func(_ context.Context, e Event) {
		if e.Topic != "test.topic" {
			t.Errorf("Topic = %q, want %q", e.Topic, "test.topic")
		}
		got.Add(1)
	})
	b.Subscribe("other.topic", func(_ context.Context, _ Event) {
		t.Error("handler for other topic should not fire")
	})

	b.Publish(context.Background(), Event{Topic: "test.topic", Timestamp: time.Now()})

	if got.Load() != 1 {
		t.Errorf("handler calls = %d, want 1", got.Load())
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(zap.NewNop())

	var got atomic.Int64
	unsub := b.Subscribe("test.topic", func(_ context.Context, _ Event) {
		got.Add(1)
	})

	b.Publish(context.Background(), Event{Topic: "test.topic"})
	unsub()
	b.Publish(context.Background(), Event{Topic: "test.topic"})

	if got.Load() != 1 {
		t.Errorf("handler calls = %d, want 1", got.Load())
	}
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	b := NewBus(zap.NewNop())

	var got atomic.Int64
	b.Subscribe("test.topic", func(_ context.Context, _ Event) {
		panic("boom")
	})
	b.Subscribe("test.topic", func(_ context.Context, _ Event) {
		got.Add(1)
	})

	b.Publish(context.Background(), Event{Topic: "test.topic"})

	if got.Load() != 1 {
		t.Errorf("second handler calls = %d, want 1", got.Load())
	}
}
