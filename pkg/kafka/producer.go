package kafka

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	kafka_config "courtbook/pkg/kafka/config"
	"courtbook/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const (
	headerDLQError     = "dlq-error"
	headerDLQTimestamp = "dlq-timestamp"

	dlqMaxAttempts = 3
)

// Producer publishes booking events to one topic. Events that cannot be
// written are copied to the dead letter topic when one is configured.
type Producer struct {
	events     *kafka.Writer
	deadLetter *kafka.Writer
	topic      string

	mu         sync.RWMutex
	middleware []ProducerMiddleware
	closed     bool
}

// PublishFunc is the next step of a publish chain.
type PublishFunc func(ctx context.Context, msg Message) error

// ProducerMiddleware wraps a publish. It must call next to deliver the message.
type ProducerMiddleware func(ctx context.Context, msg Message, next PublishFunc) error

func NewProducer(cfg *kafka_config.Config, topic string, log *logger.Logger) (*Producer, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("kafka config is required")
	case len(cfg.Brokers) == 0:
		return nil, fmt.Errorf("at least one broker is required")
	case topic == "":
		return nil, fmt.Errorf("booking events topic is required")
	}

	errorLog := kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error(fmt.Sprintf(msg, args...), logger.COMPONENT, "kafka", "topic", topic)
	})

	p := &Producer{
		topic: topic,
		events: newWriter(cfg, topic, errorLog, func(w *kafka.Writer) {
			w.RequiredAcks = cfg.RequiredAcks()
			w.MaxAttempts = cfg.ProducerMaxAttempts
			w.BatchTimeout = cfg.ProducerBatchTimeout
			w.Async = cfg.ProducerAsync
		}),
	}
	if cfg.DLQTopic != "" {
		p.deadLetter = newWriter(cfg, cfg.DLQTopic, errorLog, func(w *kafka.Writer) {
			w.RequiredAcks = kafka.RequireAll
			w.MaxAttempts = dlqMaxAttempts
		})
	}
	return p, nil
}

// newWriter keys by booking id so one booking's events stay on one partition.
func newWriter(cfg *kafka_config.Config, topic string, errorLog kafka.Logger, tune func(*kafka.Writer)) *kafka.Writer {
	w := &kafka.Writer{
		Addr:        kafka.TCP(cfg.Brokers...),
		Topic:       topic,
		Balancer:    &kafka.Hash{},
		Compression: cfg.Compression(),
		Logger:      kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: errorLog,
	}
	tune(w)
	return w
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed := p.closed
	chain := slices.Clone(p.middleware)
	p.mu.RUnlock()

	switch {
	case closed:
		return ErrProducerClosed
	case msg.Key == "":
		return ErrEmptyKey
	case len(msg.Value) == 0:
		return ErrEmptyValue
	}

	publish := PublishFunc(p.write)
	for _, mw := range slices.Backward(chain) {
		next := publish
		publish = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return publish(ctx, msg)
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.events.WriteMessages(ctx, msg.toKafka())
	if err == nil || p.deadLetter == nil {
		return err
	}
	if dlqErr := p.sendToDLQ(ctx, msg, err); dlqErr != nil {
		return fmt.Errorf("dead letter write failed: %v (publish error: %w)", dlqErr, err)
	}
	return err
}

func (p *Producer) sendToDLQ(ctx context.Context, msg Message, cause error) error {
	now := time.Now()
	headers := maps.Clone(msg.Headers)
	if headers == nil {
		headers = make(map[string]string, 3)
	}
	headers[HeaderOriginalTopic] = p.topic
	headers[headerDLQError] = cause.Error()
	headers[headerDLQTimestamp] = now.Format(time.RFC3339)

	msg.Headers = headers
	msg.Timestamp = now
	return p.deadLetter.WriteMessages(ctx, msg.toKafka())
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.events.Close()
	if p.deadLetter != nil {
		if dlqErr := p.deadLetter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}
