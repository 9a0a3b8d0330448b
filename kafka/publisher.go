package kafka

import (
	"context"
	"fmt"
	"io"

	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/prometheus"

	"github.com/Shopify/sarama"
)

// HeaderEventType is the record header carrying the event type tag across the
// wire, so the consumer can resolve the payload schema without inspecting it.
const HeaderEventType = "event_type"

type Publisher interface {
	io.Closer
	Publish(ctx context.Context, events []event.Event) error
	PublishRaw(topic string, key []byte, value []byte, headers []sarama.RecordHeader) error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewPublisher(cfg *sarama.Config, kafkaHost []string, topic string) Publisher {
	return NewPublisherWithProducer(newProducer(cfg, kafkaHost), topic)
}

func NewPublisherWithProducer(prod sarama.SyncProducer, topic string) Publisher {
	return &publisher{
		producer: prod,
		topic:    topic,
	}
}

// Publish serializes and sends each event in input order, awaiting every send
// before the next. A failure partway leaves earlier events confirmed and
// later ones unsent; the error is returned so the caller can keep the
// originating outbox records unprocessed.
func (p *publisher) Publish(ctx context.Context, events []event.Event) error {
	for _, e := range events {
		env, err := event.NewEnvelope(e)
		if err != nil {
			wrapErr := fmt.Errorf("error serializing %s event for publishing to Kafka: %w", e.EventType(), err)
			log.Logger.Error(wrapErr)
			return wrapErr
		}

		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Value: sarama.ByteEncoder(env.Payload),
			Headers: []sarama.RecordHeader{
				{
					Key:   []byte(HeaderEventType),
					Value: []byte(env.Type),
				},
			},
		}

		if env.Key != "" {
			msg.Key = sarama.StringEncoder(env.Key)
		}

		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			wrapErr := fmt.Errorf("error producing %s event in Kafka (payload: %s): %w", env.Type, env.Payload, err)
			log.Logger.Error(wrapErr)
			return wrapErr
		}

		prometheus.EventsPublished.Inc()
		log.Logger.Debugf("produced %s event in Kafka (topic: %s, partition: %d, offset: %d)", env.Type, p.topic, partition, offset)
	}

	return nil
}

// PublishRaw republishes an already-serialized message, used for routing
// unhandleable messages to the dead-letter topic.
func (p *publisher) PublishRaw(topic string, key []byte, value []byte, headers []sarama.RecordHeader) error {
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	}

	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}

	_, _, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("error producing raw message on topic %s in Kafka: %w", topic, err)
	}

	return nil
}

func (p *publisher) Close() error {
	return p.producer.Close()
}

func newProducer(cfg *sarama.Config, kafkaHosts []string) sarama.SyncProducer {
	producer, err := sarama.NewSyncProducer(kafkaHosts, cfg)
	if err != nil {
		log.Logger.Panicf("could not start kafka producer: %s", err)
	}

	return producer
}

// NewPublishHandler adapts a Publisher to the handler contract so the outbox
// processor can fan decoded events out to the broker.
func NewPublishHandler(p Publisher) event.Handler {
	return event.HandlerFunc(func(ctx context.Context, events []event.Event) error {
		return p.Publish(ctx, events)
	})
}
