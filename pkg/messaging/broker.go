package messaging

import "context"

// Broker publishes domain events to interested subscribers.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

type noopBroker struct{}

// NewNoopBroker returns a broker that drops every message. Used when no
// broker backend is configured.
func NewNoopBroker() Broker {
	return noopBroker{}
}

func (noopBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (noopBroker) Close() error { return nil }
