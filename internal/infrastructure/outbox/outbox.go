// Package outbox is the in-process event bus behind the checkout write path.
package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/outbox"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/merchant-dashboard/internal/presentation/worker"
	"go.opentelemetry.io/otel/trace"
)

const componentOutbox = "outbox"

var ErrStopped = errors.New("outbox: bus stopped")

// Bus fans events out to subscribers on a background loop. Events are not persisted;
// anything still queued when the process exits is lost.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]domoutbox.Handler
	queue   chan domoutbox.Event
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	concurrency    int
	handlerTimeout time.Duration

	log observability.Logger
	tel observability.Observability
}

type Option func(*Bus)

// WithQueueSize sets how many events may wait for dispatch before Publish blocks.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan domoutbox.Event, n)
		}
	}
}

// WithConcurrency caps handlers running at once for a single event.
func WithConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

func NewBus(tel observability.Observability, opts ...Option) *Bus {
	tel = observability.Or(tel)
	b := &Bus{
		subs:           make(map[string][]domoutbox.Handler),
		queue:          make(chan domoutbox.Event, 256),
		done:           make(chan struct{}),
		concurrency:    4,
		handlerTimeout: 30 * time.Second,
		log:            tel.Logger().With(observability.F("component", componentOutbox)),
		tel:            tel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events, lets the loop drain what is queued and waits for it,
// bounded by ctx.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		close(b.queue)
		b.mu.Unlock()

		started := true
		b.startOnce.Do(func() { started = false })
		if started {
			select {
			case <-b.done:
			case <-ctx.Done():
				logctx.FromOr(ctx, b.log).Warn("event_bus_drain_aborted",
					observability.F("error", ctx.Err()),
				)
			}
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return ErrStopped
	}

	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))
	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted",
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.fanout(ctx, e)
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			hctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
			sc := trace.SpanContextFromContext(hctx)
			hctx = workerpresentation.WithEventContext(hctx, b.log, b.tel, sc.TraceID(), sc.SpanID(),
				map[string]string{"event": name},
			)
			logger := logctx.FromOr(hctx, b.log)

			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				cancel()
				<-sem
				wg.Done()
			}()

			if err := h(hctx, e); err != nil {
				logger.Warn("event_handler_error", observability.F("error", err))
			}
		}()
	}

	wg.Wait()

	b.log.Debug("event_fanned_out",
		observability.F("event", name),
		observability.F("handlers", len(handlers)),
	)
}
