package queue

import (
	"errors"
	"time"
)

// Publish attempt statuses reported on a Delivery.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

var (
	// ErrQueueFull is returned synchronously by Publish when the internal
	// buffer is full. Callers must treat it as backpressure: retry after a
	// delay or drop and log.
	ErrQueueFull = errors.New("queue: internal buffer full")

	// ErrClosed is returned by Publish after the publisher has been closed.
	ErrClosed = errors.New("queue: publisher closed")

	// ErrBrokerUnreachable is reported via the delivery callback when the
	// broker rejects or never acknowledges a send.
	ErrBrokerUnreachable = errors.New("queue: broker unreachable")

	// ErrMessageTooLarge is reported via the delivery callback when a value
	// exceeds the broker's message size limit.
	ErrMessageTooLarge = errors.New("queue: message exceeds broker size limit")
)

// Delivery reports the terminal outcome of a previously queued publish.
// Err is nil when the broker acknowledged the message.
type Delivery struct {
	Topic    string
	Key      []byte
	Value    []byte
	Attempts int
	Err      error
}

// Status returns the terminal publish attempt status.
func (d Delivery) Status() string {
	if d.Err != nil {
		return StatusFailed
	}
	return StatusDelivered
}

// DeliveryCallback is invoked exactly once per queued message from the
// publisher's sender goroutine. Callbacks must not block.
type DeliveryCallback func(Delivery)

// Publisher is an asynchronous queue producer. Publish never blocks on
// broker I/O; outcomes are observable only through the delivery callback.
// Values must be serialized by the caller.
type Publisher interface {
	// Publish queues a message for delivery and returns immediately. The
	// only synchronous failures are ErrQueueFull and ErrClosed.
	Publish(topic string, key, value []byte, cb DeliveryCallback) error

	// Flush blocks up to timeout while the internal queue drains and
	// returns the number of messages still undelivered. Intended for
	// process shutdown only.
	Flush(timeout time.Duration) int

	// Close stops the publisher after a bounded flush.
	Close() error
}
