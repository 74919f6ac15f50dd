package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockHandler struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (h *mockHandler) Handle(ctx context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *mockHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Stop()

	handler := &mockHandler{}
	bus.Subscribe("tool_invoked", handler)

	bus.mu.RLock()
	handlers := bus.handlers["tool_invoked"]
	bus.mu.RUnlock()

	if len(handlers) != 1 {
		t.Fatalf("expected 1 handler, got %d", len(handlers))
	}
}

func TestBusPublish(t *testing.T) {
	bus := NewBus()
	defer bus.Stop()

	handler := &mockHandler{}
	bus.Subscribe("state_changed", handler)

	err := bus.Publish(context.Background(), Event{
		Type:      "state_changed",
		SessionID: 7,
		Data:      map[string]interface{}{"state": uint64(3)},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for handler.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if handler.count() != 1 {
		t.Fatalf("expected 1 delivered event, got %d", handler.count())
	}
}

func TestBusPublishNoSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Stop()

	// Events with no subscribers are dropped without error.
	if err := bus.Publish(context.Background(), Event{Type: "unheard"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestBusPublishSync(t *testing.T) {
	bus := NewBus()
	defer bus.Stop()

	good := &mockHandler{}
	bad := &mockHandler{err: errors.New("handler broke")}
	bus.Subscribe("session_completed", good)
	bus.Subscribe("session_completed", bad)

	errs := bus.PublishSync(context.Background(), Event{Type: "session_completed", SessionID: 1})
	if len(errs) != 1 {
		t.Fatalf("expected 1 handler error, got %d", len(errs))
	}
	if good.count() != 1 || bad.count() != 1 {
		t.Fatalf("expected both handlers invoked, got %d and %d", good.count(), bad.count())
	}
}

func TestBusPublishAfterStop(t *testing.T) {
	bus := NewBus()
	bus.SubscribeFunc("state_changed", func(ctx context.Context, event Event) error {
		return nil
	})
	bus.Stop()

	if err := bus.Publish(context.Background(), Event{Type: "state_changed"}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusPublishDuringStop(t *testing.T) {
	bus := NewBus()
	bus.SubscribeFunc("state_changed", func(ctx context.Context, event Event) error {
		return nil
	})

	// Publishers racing Stop must either deliver or get ErrBusClosed; a send
	// on the closed channel would panic and fail the test.
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 100; j++ {
				err := bus.Publish(context.Background(), Event{Type: "state_changed"})
				if err != nil && !errors.Is(err, ErrBusClosed) && !errors.Is(err, ErrChannelFull) {
					t.Errorf("unexpected publish error: %v", err)
					return
				}
			}
		}()
	}

	close(start)
	bus.Stop()
	wg.Wait()

	if err := bus.Publish(context.Background(), Event{Type: "state_changed"}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed after stop, got %v", err)
	}
}

func TestBusErrorHandler(t *testing.T) {
	var mu sync.Mutex
	var seen []error

	bus := NewBus(WithBufferSize(8), WithErrorHandler(func(event Event, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, err)
	}))
	defer bus.Stop()

	bus.SubscribeFunc("tool_invoked", func(ctx context.Context, event Event) error {
		return errors.New("boom")
	})

	if err := bus.Publish(context.Background(), Event{Type: "tool_invoked"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected 1 error reported, got %d", len(seen))
	}
}
