// Package outbox defines how the write path announces what it did to in-process listeners.
package outbox

import "context"

// Event names itself; subscribers are keyed by that name.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus both delivers and accepts subscriptions.
type Bus interface {
	Publisher
	Subscriber
}
