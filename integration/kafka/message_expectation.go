//go:build integration
// +build integration

package kafka

import (
	"docshelf/event-pipeline/event"
)

type MessageExpectation struct {
	Topic    string
	Envelope event.Envelope
}

func GetTopicsFromMessageExpectations(msgs []MessageExpectation) []string {
	seen := map[string]bool{}
	var topics []string
	for _, m := range msgs {
		if !seen[m.Topic] {
			seen[m.Topic] = true
			topics = append(topics, m.Topic)
		}
	}
	return topics
}
