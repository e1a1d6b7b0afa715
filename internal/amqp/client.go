package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"it10bb/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures        = 5
	openTimeout        = 30 * time.Second
	maxPublishAttempts = 3
	publishTimeout     = 5 * time.Second
	maxBackoff         = 30 * time.Second
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker is open")
	ErrChannelClosed = errors.New("message channel closed")
)

// Handler turns one request into the reply sent back to the caller.
type Handler func(ctx context.Context, req *EstimateRequestMessage) *EstimateResultMessage

type replyFunc func(ctx context.Context, d amqp091.Delivery, body []byte) error

type Client struct {
	url          string
	exchangeName string
	queueName    string
	prefetch     int
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	cbMu         sync.Mutex
	lastFailure  time.Time
}

// Option customizes a Client.
type Option func(*Client)

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.WithComponent(log.ComponentAMQP)
		}
	}
}

// WithPrefetch bounds unacknowledged deliveries per consumer.
func WithPrefetch(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.prefetch = n
		}
	}
}

func NewClient(url, exchangeName, queueName string, opts ...Option) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		prefetch:     10,
		logger:       log.Default(log.ComponentAMQP),
	}
	for _, opt := range opts {
		opt(client)
	}

	if _, err := client.ensureChannel(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	c.conn, c.channel = conn, channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return channel, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEstimateRequest enqueues a request without waiting for a reply.
func (c *Client) PublishEstimateRequest(ctx context.Context, req *EstimateRequestMessage) error {
	body, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = c.publish(ctx, c.exchangeName, c.queueName, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: req.RequestID,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return err
	}

	c.getLogger().InfoContext(ctx, "Published estimate request",
		log.FieldCorrelationID, req.RequestID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Call publishes a request and blocks until the matching reply arrives or
// ctx is done.
func (c *Client) Call(ctx context.Context, req *EstimateRequestMessage) (*EstimateResultMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.isCircuitOpen() {
		return nil, fmt.Errorf("call %s: %w", c.queueName, ErrCircuitOpen)
	}

	if _, err := c.ensureChannel(); err != nil {
		c.recordFailure()
		return nil, err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("open reply channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare reply queue: %w", err)
	}
	replies, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume reply queue: %w", err)
	}

	body, err := req.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	err = ch.PublishWithContext(pctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		CorrelationId: req.RequestID,
		ReplyTo:       q.Name,
		Timestamp:     time.Now(),
		Body:          body,
	})
	cancel()
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case d, ok := <-replies:
			if !ok {
				return nil, ErrChannelClosed
			}
			if d.CorrelationId != req.RequestID {
				continue
			}
			return EstimateResultMessageFromJSON(d.Body)
		}
	}
}

// ConsumeEstimateRequests serves requests until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away.
func (c *Client) ConsumeEstimateRequests(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		handled, err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			c.getLogger().InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if handled > 0 {
			attempt = 0
		}

		c.recordFailure()
		c.resetConnection()
		wait := exponentialBackoff(attempt)
		attempt++
		c.getLogger().WarnContext(ctx, "Consumer interrupted, reconnecting", log.FieldError, err, "retry_in", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler Handler) (int, error) {
	ch, err := c.ensureChannel()
	if err != nil {
		return 0, err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return 0, fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return 0, fmt.Errorf("start consuming: %w", err)
	}
	c.recordSuccess()
	c.getLogger().InfoContext(ctx, "Started consuming estimate requests", "queue", c.queueName)

	handled := 0
	for {
		select {
		case <-ctx.Done():
			return handled, ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return handled, ErrChannelClosed
			}
			c.handleDelivery(ctx, d, handler, c.reply)
			handled++
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler, reply replyFunc) {
	msg, err := EstimateRequestMessageFromJSON(d.Body)
	if err != nil {
		c.getLogger().ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
		_ = d.Nack(false, false) // reject and don't requeue
		return
	}
	if msg.RequestID == "" {
		msg.RequestID = d.CorrelationId
	}

	result := handler(ctx, msg)
	if d.ReplyTo != "" && result != nil {
		body, err := result.ToJSON()
		if err == nil {
			err = reply(ctx, d, body)
		}
		if err != nil {
			c.getLogger().ErrorContext(ctx, "Failed to send reply", log.FieldError, err, log.FieldCorrelationID, msg.RequestID)
			_ = d.Nack(false, true) // reject and requeue
			return
		}
	}

	_ = d.Ack(false)
	c.getLogger().DebugContext(ctx, "Processed estimate request", log.FieldCorrelationID, msg.RequestID)
}

func (c *Client) reply(ctx context.Context, d amqp091.Delivery, body []byte) error {
	return c.publish(ctx, "", d.ReplyTo, amqp091.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Timestamp:     time.Now(),
		Body:          body,
	})
}

func (c *Client) publish(ctx context.Context, exchange, routingKey string, msg amqp091.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}

	var lastErr error
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		ch, err := c.ensureChannel()
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			err = ch.PublishWithContext(pctx, exchange, routingKey, false, false, msg)
			cancel()
		}
		if err == nil {
			c.recordSuccess()
			return nil
		}

		lastErr = err
		c.recordFailure()
		if !isConnectionError(err) || c.isCircuitOpen() {
			break
		}
		c.resetConnection()
	}
	return fmt.Errorf("publish message: %w", lastErr)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}

	c.cbMu.Lock()
	last := c.lastFailure
	c.cbMu.Unlock()

	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)

	c.cbMu.Lock()
	c.lastFailure = time.Now()
	c.cbMu.Unlock()

	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.getLogger().Warn("Circuit breaker opened", "failures", n)
		}
	}
}

// exponentialBackoff doubles from one second, capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection", "eof", "broken pipe", "closed"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) getLogger() *log.Logger {
	if c.logger == nil {
		return log.Default(log.ComponentAMQP)
	}
	return c.logger
}

func (c *Client) resetConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
