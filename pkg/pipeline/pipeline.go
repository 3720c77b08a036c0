// Package pipeline contains the primitives that connect media processing stages.
package pipeline

// Sink consumes items produced by an upstream stage.
type Sink[T any] interface {
	Feed(item T) error
}

// SinkFunc turns a function into a Sink.
type SinkFunc[T any] func(item T) error

// Feed implements Sink.
func (f SinkFunc[T]) Feed(item T) error {
	return f(item)
}

// Notifier delivers items to subscribed sinks.
// Delivery is synchronous and follows subscription order.
type Notifier[T any] struct {
	sinks []Sink[T]
}

// Subscribe adds a sink.
func (n *Notifier[T]) Subscribe(s Sink[T]) {
	n.sinks = append(n.sinks, s)
}

// Notify delivers an item to all subscribed sinks.
// It stops at the first sink that returns an error.
func (n *Notifier[T]) Notify(item T) error {
	for _, s := range n.sinks {
		err := s.Feed(item)
		if err != nil {
			return err
		}
	}
	return nil
}
