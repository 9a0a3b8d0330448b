package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"docshelf/event-pipeline/config"
	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/prometheus"

	"github.com/Shopify/sarama"
	"github.com/sirupsen/logrus"
)

const defaultRetryBackoff = 1 * time.Second

// Consumer runs the inbound half of the pipeline: an ingest loop pulling raw
// messages from the broker into a bounded buffer, and a handling loop
// draining that buffer through the event registry. The broker client is
// touched only by the ingest loop and by the offset store in the handling
// loop.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler *groupHandler
}

func NewConsumer(cfg *config.Config, saramaCfg *sarama.Config, registry *event.Registry, deadLetters Publisher) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.KafkaHost, cfg.KafkaGroupId, saramaCfg)
	if err != nil {
		return nil, err
	}

	return NewConsumerWithGroup(group, cfg, registry, deadLetters), nil
}

func NewConsumerWithGroup(group sarama.ConsumerGroup, cfg *config.Config, registry *event.Registry, deadLetters Publisher) *Consumer {
	return &Consumer{
		group:  group,
		topics: []string{cfg.KafkaTopic},
		handler: &groupHandler{
			registry:        registry,
			capacity:        cfg.ConsumerBufferCapacity,
			attempts:        cfg.ConsumerHandlerAttempts,
			deadLetterTopic: cfg.KafkaDeadLetterTopic,
			deadLetters:     deadLetters,
			retryBackoff:    defaultRetryBackoff,
		},
	}
}

// Run consumes until the context is cancelled, which is reported as a clean
// shutdown. A broker transport failure is returned to the caller and
// terminates the pipeline; it is not retried internally.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.group.Close(); err != nil {
			log.Logger.WithError(err).Error("error closing kafka consumer group during shutdown")
		}
	}()

	for {
		if err := c.group.Consume(ctx, c.topics, c.handler); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// BufferLen reports how many consumed messages are waiting to be handled.
func (c *Consumer) BufferLen() int {
	return c.handler.BufferLen()
}

type groupHandler struct {
	registry        *event.Registry
	capacity        int
	attempts        int
	deadLetterTopic string
	deadLetters     Publisher
	retryBackoff    time.Duration

	mu  sync.Mutex
	buf chan *sarama.ConsumerMessage
	wg  sync.WaitGroup
}

func (h *groupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.mu.Lock()
	h.buf = make(chan *sarama.ConsumerMessage, h.capacity)
	h.mu.Unlock()

	h.wg.Add(1)
	go h.handle(session, h.buf)

	return nil
}

// Cleanup closes the buffer for writing once every ingest loop has returned,
// then waits for the handling loop to finish draining what is already
// buffered.
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.mu.Lock()
	close(h.buf)
	h.mu.Unlock()

	h.wg.Wait()

	return nil
}

// ConsumeClaim is the ingest loop. It only moves raw messages into the
// bounded buffer: when the buffer is full the send blocks, which throttles
// how fast we pull from the broker. It never handles messages and never
// stores offsets.
func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			select {
			case h.buf <- msg:
			case <-session.Context().Done():
				return nil
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) BufferLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf == nil {
		return 0
	}

	return len(h.buf)
}

// handle is the handling loop. It drains the buffer in FIFO order and stores
// the offset only after the message has been dealt with; the periodic
// auto-commit flushes stored offsets to the broker.
func (h *groupHandler) handle(session sarama.ConsumerGroupSession, buf <-chan *sarama.ConsumerMessage) {
	defer h.wg.Done()

	for msg := range buf {
		if h.handleMessage(session.Context(), msg) {
			session.MarkMessage(msg, "")
		}
	}
}

// handleMessage dispatches one message through the registry with a bounded
// number of attempts, dead-lettering it if all attempts fail. It reports
// whether the offset should be stored; false only when the session was
// cancelled before the message could be resolved, so an unhandled message is
// redelivered after restart.
func (h *groupHandler) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	env := envelopeFromMessage(msg)
	logger := log.Logger.WithFields(logrus.Fields{
		"event_type": env.Type,
		"topic":      msg.Topic,
		"partition":  msg.Partition,
		"offset":     msg.Offset,
	})

	if env.Type == "" {
		logger.Error("consumed a message without an event type header")
		h.deadLetter(msg)
		return true
	}

	var err error
	for attempt := 1; attempt <= h.attempts; attempt++ {
		if err = h.registry.Dispatch(ctx, env); err == nil {
			prometheus.EventsConsumed.Inc()
			return true
		}

		prometheus.HandlerFailures.Inc()
		logger.WithError(err).Warnf("handling attempt %d of %d failed", attempt, h.attempts)

		if attempt < h.attempts {
			select {
			case <-time.After(h.retryBackoff):
			case <-ctx.Done():
				return false
			}
		}
	}

	logger.WithError(err).WithField("payload", string(msg.Value)).Error("all handling attempts failed for consumed message")
	h.deadLetter(msg)

	return true
}

func (h *groupHandler) deadLetter(msg *sarama.ConsumerMessage) {
	if h.deadLetterTopic == "" || h.deadLetters == nil {
		return
	}

	headers := make([]sarama.RecordHeader, len(msg.Headers))
	for i, rh := range msg.Headers {
		headers[i] = *rh
	}

	if err := h.deadLetters.PublishRaw(h.deadLetterTopic, msg.Key, msg.Value, headers); err != nil {
		log.Logger.WithError(err).Errorf("unable to dead-letter message from topic %s", msg.Topic)
		return
	}

	prometheus.EventsDeadLettered.Inc()
}

func envelopeFromMessage(msg *sarama.ConsumerMessage) event.Envelope {
	env := event.Envelope{
		Payload: msg.Value,
		Key:     string(msg.Key),
	}

	for _, rh := range msg.Headers {
		if string(rh.Key) == HeaderEventType {
			env.Type = string(rh.Value)
			break
		}
	}

	return env
}
