package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrBusClosed indicates the event bus has been stopped.
	ErrBusClosed = errors.New("event bus is closed")
	// ErrChannelFull indicates the event channel cannot accept more events.
	ErrChannelFull = errors.New("event channel is full")
)

// Event is a conversation-layer notification: a session changed state, a tool
// ran, a guideline fired.
type Event struct {
	Type      string
	SessionID uint64
	Data      map[string]interface{}
}

// Handler handles published events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus manages event subscriptions and asynchronous publishing. Events are
// processed by a single background goroutine; handlers for one event run
// concurrently.
type Bus struct {
	handlers   map[string][]Handler
	mu         sync.RWMutex
	eventCh    chan Event
	errHandler func(event Event, err error)
	wg         sync.WaitGroup
	closed     bool
	closeMu    sync.RWMutex
}

// Option configures a Bus.
type Option func(*Bus)

// WithBufferSize sets the event channel buffer size.
func WithBufferSize(size int) Option {
	return func(b *Bus) {
		b.eventCh = make(chan Event, size)
	}
}

// WithErrorHandler sets the function invoked when a handler returns an error.
func WithErrorHandler(handler func(event Event, err error)) Option {
	return func(b *Bus) {
		b.errHandler = handler
	}
}

// NewBus creates a Bus and starts its processing goroutine. The default
// buffer size is 64; handler errors are printed unless WithErrorHandler is
// given.
func NewBus(options ...Option) *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		eventCh:  make(chan Event, 64),
		errHandler: func(event Event, err error) {
			fmt.Printf("event %s (session %d): handler error: %v\n", event.Type, event.SessionID, err)
		},
	}
	for _, option := range options {
		option(b)
	}

	b.wg.Add(1)
	go b.process()

	return b
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeFunc registers a function as a handler for an event type.
func (b *Bus) SubscribeFunc(eventType string, fn func(ctx context.Context, event Event) error) {
	b.Subscribe(eventType, HandlerFunc(fn))
}

// Publish enqueues an event for asynchronous delivery. Events with no
// subscribers are dropped silently. Returns ErrBusClosed after Stop, or
// ErrChannelFull when the buffer is saturated.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	b.mu.RLock()
	_, hasHandlers := b.handlers[event.Type]
	b.mu.RUnlock()
	if !hasHandlers {
		return nil
	}

	// The closed check must cover the send itself, or a Publish racing Stop
	// could send on the closed channel. The send never blocks, so holding the
	// read lock here cannot stall Stop for long.
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case b.eventCh <- event:
		return nil
	default:
		return ErrChannelFull
	}
}

// PublishSync delivers an event to all subscribers and waits for their
// results, bounded by a 5-second timeout unless ctx is shorter.
func (b *Bus) PublishSync(ctx context.Context, event Event) []error {
	b.closeMu.RLock()
	closed := b.closed
	b.closeMu.RUnlock()
	if closed {
		return []error{ErrBusClosed}
	}

	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()
	if len(handlers) == 0 {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return b.runHandlers(timeoutCtx, handlers, event)
}

// Stop closes the bus and waits for the processing goroutine. Events already
// buffered are still delivered before it exits; later publishes return
// ErrBusClosed.
func (b *Bus) Stop() {
	b.closeMu.Lock()
	if !b.closed {
		b.closed = true
		close(b.eventCh)
	}
	b.closeMu.Unlock()

	b.wg.Wait()
}

func (b *Bus) process() {
	defer b.wg.Done()

	for event := range b.eventCh {
		b.mu.RLock()
		handlers := b.handlers[event.Type]
		b.mu.RUnlock()
		if len(handlers) == 0 {
			continue
		}

		for _, err := range b.runHandlers(context.Background(), handlers, event) {
			b.errHandler(event, err)
		}
	}
}

func (b *Bus) runHandlers(ctx context.Context, handlers []Handler, event Event) []error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))

	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h.Handle(ctx, event); err != nil {
				errCh <- err
			}
		}(handler)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}
