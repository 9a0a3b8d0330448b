//go:build integration
// +build integration

package kafka

import (
	"bytes"
	"sync"

	pipelinekafka "docshelf/event-pipeline/kafka"

	"github.com/Shopify/sarama"
)

// ConsumerHandler drains the test topics and checks off the expected
// envelopes as they arrive, matching on payload, event type header and, when
// set, the partition key.
type ConsumerHandler struct {
	mu      sync.Mutex
	pending []MessageExpectation
}

func NewConsumerHandler(exp []MessageExpectation) *ConsumerHandler {
	pending := make([]MessageExpectation, len(exp))
	copy(pending, exp)

	return &ConsumerHandler{pending: pending}
}

// MessagesFound reports whether every expected envelope has been consumed.
func (c *ConsumerHandler) MessagesFound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending) == 0
}

func (c *ConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.checkOff(message)
		session.MarkMessage(message, "")
	}

	return nil
}

func (c *ConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *ConsumerHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *ConsumerHandler) checkOff(consumed *sarama.ConsumerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j := 0
	for _, m := range c.pending {
		if !envelopeMatches(consumed, m) {
			c.pending[j] = m
			j++
		}
	}
	c.pending = c.pending[:j]
}

func envelopeMatches(consumed *sarama.ConsumerMessage, exp MessageExpectation) bool {
	if !bytes.Equal(consumed.Value, exp.Envelope.Payload) {
		return false
	}

	if exp.Envelope.Key != "" && !bytes.Equal(consumed.Key, []byte(exp.Envelope.Key)) {
		return false
	}

	for _, rh := range consumed.Headers {
		if string(rh.Key) == pipelinekafka.HeaderEventType {
			return string(rh.Value) == exp.Envelope.Type
		}
	}

	return false
}
