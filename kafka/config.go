package kafka

import (
	"crypto/tls"
	"os"
	"time"

	"docshelf/event-pipeline/config"

	"github.com/Shopify/sarama"
)

// NewSaramaConfig builds the shared client configuration. The producer lingers
// for the configured flush frequency and flushes early once the byte threshold
// is reached, trading a few milliseconds of latency for fewer broker round
// trips. Consumed offsets are stored per message and flushed by the periodic
// auto-commit.
func NewSaramaConfig(cfg *config.Config) *sarama.Config {
	c := sarama.NewConfig()

	host, _ := os.Hostname()

	c.ClientID = host
	c.Version = sarama.V2_4_0_0
	c.Producer.Return.Successes = true
	c.Producer.Compression = sarama.CompressionGZIP
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Producer.Flush.Frequency = cfg.GetLingerDurationInMs()
	c.Producer.Flush.Bytes = cfg.KafkaBatchSizeBytes
	c.Metadata.Retry.Max = 10
	c.Metadata.Retry.Backoff = 2 * time.Second
	c.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.Consumer.Offsets.AutoCommit.Enable = true
	c.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if cfg.TLSEnable {
		c.Net.TLS.Enable = true
		// #nosec G402
		// we suppress this in gosec because it believes that InsecureSkipVerify is true, but it depends on the parameter
		// value passed into this func, which is dependent on environment configuration
		c.Net.TLS.Config = &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerifyPeer}
	}

	return c
}
