package sqs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/GingerBreadIdeas/echker/internal/config"
	"github.com/GingerBreadIdeas/echker/internal/queue"
)

// maxMessageBytes is the SQS SendMessage payload limit.
const maxMessageBytes = 256 * 1024

// sqsAPI is the part of the SQS client the publisher uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

type message struct {
	topic string
	key   []byte
	value []byte
	cb    queue.DeliveryCallback
}

// Client is an asynchronous SQS publisher. Publish enqueues to a bounded
// in-memory buffer; a sender goroutine owned by the client drains the
// buffer, performs the broker round trip and invokes delivery callbacks.
// The client is process-wide shared state: construct once, Close at
// shutdown.
type Client struct {
	api    sqsAPI
	config envConfig.SQS
	log    *zap.Logger

	messages  chan *message
	pending   atomic.Int64
	mu        sync.RWMutex
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var _ queue.Publisher = (*Client)(nil)

// NewClient creates a new SQS publisher and starts its sender goroutine
func NewClient(ctx context.Context, SQSConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(SQSConfig.Region),
	}

	var clientOpts []func(*awssqs.Options)

	// Configure for local development with ElasticMQ
	if endpoint := SQSConfig.Endpoint(); endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *awssqs.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS publisher created",
		zap.String("region", SQSConfig.Region),
		zap.String("queue_url", SQSConfig.QueueURL),
		zap.Int("buffer_size", SQSConfig.BufferSize))

	return newClient(awssqs.NewFromConfig(cfg, clientOpts...), SQSConfig, log), nil
}

// newClient wires the internals around an SQS API; split out for tests.
func newClient(api sqsAPI, cfg envConfig.SQS, log *zap.Logger) *Client {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}

	sendCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		api:      api,
		config:   cfg,
		log:      log,
		messages: make(chan *message, cfg.BufferSize),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.run(sendCtx)

	return c
}

// Publish queues a message for asynchronous delivery. It never blocks on
// broker I/O; when the internal buffer is full it returns
// queue.ErrQueueFull immediately.
//
// The closed check and the enqueue happen under the read lock so no
// message can slip into the buffer after Close has started draining it.
func (c *Client) Publish(topic string, key, value []byte, cb queue.DeliveryCallback) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return queue.ErrClosed
	}

	msg := &message{topic: topic, key: key, value: value, cb: cb}

	c.pending.Add(1)
	select {
	case c.messages <- msg:
		return nil
	default:
		c.pending.Add(-1)
		return queue.ErrQueueFull
	}
}

// run is the sender loop; it owns every broker round trip.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case msg := <-c.messages:
			c.deliver(ctx, msg)
		case <-ctx.Done():
			c.log.Info("Publisher sender shutting down")
			return
		}
	}
}

// deliver performs one send and reports the outcome through the callback.
func (c *Client) deliver(ctx context.Context, msg *message) {
	defer c.pending.Add(-1)

	d := queue.Delivery{
		Topic:    msg.topic,
		Key:      msg.key,
		Value:    msg.value,
		Attempts: 1,
	}

	if len(msg.value) > maxMessageBytes {
		d.Err = fmt.Errorf("%w: %d bytes", queue.ErrMessageTooLarge, len(msg.value))
	} else {
		input := &awssqs.SendMessageInput{
			QueueUrl:    aws.String(c.config.QueueURL),
			MessageBody: aws.String(string(msg.value)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"Topic": {
					DataType:    aws.String("String"),
					StringValue: aws.String(msg.topic),
				},
			},
		}
		if _, err := c.api.SendMessage(ctx, input); err != nil {
			d.Err = fmt.Errorf("%w: %v", queue.ErrBrokerUnreachable, err)
		}
	}

	if d.Err != nil {
		c.log.Error("Message delivery failed",
			zap.String("topic", msg.topic),
			zap.Error(d.Err))
	} else {
		c.log.Debug("Message delivered",
			zap.String("topic", msg.topic),
			zap.Int("bytes", len(msg.value)))
	}

	if msg.cb != nil {
		msg.cb(d)
	}
}

// Flush blocks up to timeout while queued and in-flight messages drain.
// It returns the number of messages still undelivered.
func (c *Client) Flush(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	for {
		remaining := int(c.pending.Load())
		if remaining == 0 || !time.Now().Before(deadline) {
			return remaining
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops accepting messages, drains the buffer within the configured
// flush timeout and stops the sender goroutine. Messages still buffered
// when the flush window expires are failed through their callbacks rather
// than silently dropped.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		if undelivered := c.Flush(c.config.FlushTimeout()); undelivered > 0 {
			c.log.Warn("Closing publisher with undelivered messages",
				zap.Int("undelivered", undelivered))
		}
		c.cancel()
		<-c.done
		c.failRemaining()
	})
	return nil
}

// failRemaining reports queue.ErrClosed for every message left in the
// buffer after the sender has stopped, keeping the one-callback-per-queued-
// message contract through an expired flush window. Only called from Close
// once the sender goroutine has exited.
func (c *Client) failRemaining() {
	for {
		select {
		case msg := <-c.messages:
			c.pending.Add(-1)
			c.log.Warn("Message undelivered at shutdown",
				zap.String("topic", msg.topic))
			if msg.cb != nil {
				msg.cb(queue.Delivery{
					Topic: msg.topic,
					Key:   msg.key,
					Value: msg.value,
					Err:   queue.ErrClosed,
				})
			}
		default:
			return
		}
	}
}
