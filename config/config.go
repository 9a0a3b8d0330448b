package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"docshelf/event-pipeline/log"

	"github.com/alexflint/go-arg"
)

const (
	MySQL    DbDriver = "mysql"
	Postgres DbDriver = "postgres"
)

type DbDriver string

var supportedDbTypes = map[DbDriver]bool{
	Postgres: true,
	MySQL:    true,
}

type Config struct {
	SkipMigrations          bool     `arg:"--skip-migrations,env:SKIP_MIGRATIONS"`
	DBHost                  string   `arg:"--db-host,env:DB_HOST,required"`
	DBPort                  uint32   `arg:"--db-port,env:DB_PORT,required"`
	DBUser                  string   `arg:"--db-user,env:DB_USER,required"`
	DBPass                  string   `arg:"--db-pass,env:DB_PASS,required"`
	DBSchema                string   `arg:"--db-schema,env:DB_SCHEMA,required"`
	DBDriver                DbDriver `arg:"--db-driver,env:DB_DRIVER,required"`
	DBOutboxTable           string   `arg:"--db-outbox-table,env:DB_OUTBOX_TABLE,required"`
	KafkaHost               []string `arg:"--kafka-host,env:KAFKA_HOST,required"`
	KafkaTopic              string   `arg:"--kafka-topic,env:KAFKA_TOPIC"`
	KafkaGroupId            string   `arg:"--kafka-group-id,env:KAFKA_GROUP_ID"`
	KafkaDeadLetterTopic    string   `arg:"--kafka-dead-letter-topic,env:KAFKA_DEAD_LETTER_TOPIC"`
	KafkaPublishAttempts    int      `arg:"--kafka-publish-attempts,env:KAFKA_PUBLISH_ATTEMPTS"`
	KafkaLingerMs           int      `arg:"--kafka-linger-ms,env:KAFKA_LINGER_MS"`
	KafkaBatchSizeBytes     int      `arg:"--kafka-batch-size-bytes,env:KAFKA_BATCH_SIZE_BYTES"`
	TLSEnable               bool     `arg:"--kafka-tls,env:TLS_ENABLE"`
	TLSSkipVerifyPeer       bool     `arg:"--kafka-tls-verify-peer,env:TLS_SKIP_VERIFY_PEER"`
	WriteConcurrency        int      `arg:"--write-concurrency,env:WRITE_CONCURRENCY"`
	PollFrequencyMs         int      `arg:"--poll-frequency-ms,env:POLL_FREQUENCY_MS"`
	StartupDelayMs          int      `arg:"--startup-delay-ms,env:STARTUP_DELAY_MS"`
	BatchSize               int      `arg:"--batch-size,env:BATCH_SIZE"`
	ConsumerBufferCapacity  int      `arg:"--consumer-buffer-capacity,env:CONSUMER_BUFFER_CAPACITY"`
	ConsumerHandlerAttempts int      `arg:"--consumer-handler-attempts,env:CONSUMER_HANDLER_ATTEMPTS"`
	DocumentServiceUrl      string   `arg:"--document-service-url,env:DOCUMENT_SERVICE_URL"`
	RunConsumer             bool     `arg:"--consumer,env:RUN_CONSUMER"`
	RunCleanup              bool     `arg:"--cleanup,env:RUN_CLEANUP"`
	RunOptimize             bool     `arg:"--optimize,env:RUN_OPTIMIZE"`
	SidecarProxyUrl         string   `arg:"--sidecar-proxy-url,env:SIDECAR_PROXY_URL"`
}

func NewConfig() (*Config, error) {
	c := &Config{
		KafkaPublishAttempts:    3,
		KafkaLingerMs:           5,
		KafkaBatchSizeBytes:     65536,
		WriteConcurrency:        1,
		PollFrequencyMs:         10000,
		StartupDelayMs:          10000,
		BatchSize:               100,
		ConsumerBufferCapacity:  10,
		ConsumerHandlerAttempts: 3,
	}
	arg.MustParse(c)

	if !supportedDbTypes[c.DBDriver] {
		return nil, fmt.Errorf("the DB_DRIVER provided (%s) is not supported", c.DBDriver)
	}

	if c.RunConsumer && c.KafkaGroupId == "" {
		return nil, fmt.Errorf("KAFKA_GROUP_ID is required when running as a consumer")
	}

	return c, nil
}

func (c *Config) GetPollIntervalDurationInMs() time.Duration {
	return time.Duration(c.PollFrequencyMs) * time.Millisecond
}

func (c *Config) GetStartupDelayDurationInMs() time.Duration {
	return time.Duration(c.StartupDelayMs) * time.Millisecond
}

func (c *Config) GetLingerDurationInMs() time.Duration {
	return time.Duration(c.KafkaLingerMs) * time.Millisecond
}

func (c *Config) GetDSN() string {
	switch c.DBDriver {
	case MySQL:
		tls := "false"
		if c.TLSEnable {
			if c.TLSSkipVerifyPeer {
				tls = "skip-verify"
			} else {
				tls = "true"
			}
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=%s&multiStatements=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBSchema, tls)
	case Postgres:
		sslMode := "disable"
		if c.TLSEnable {
			if c.TLSSkipVerifyPeer {
				sslMode = "require"
			} else {
				sslMode = "verify-full"
			}
		}
		return fmt.Sprintf("%s://%s@%s:%d/%s?sslmode=%s", c.DBDriver, url.UserPassword(c.DBUser, c.DBPass), c.DBHost, c.DBPort, c.DBSchema, sslMode)
	default:
		log.Logger.Fatalf("the DB driver configured (%s) is not supported", c.DBDriver)
		return ""
	}
}

func (c *Config) GetDependencySystemAddresses() []string {
	return c.KafkaHost
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"SkipMigrations":          c.SkipMigrations,
		"DBHost":                  c.DBHost,
		"DBPort":                  c.DBPort,
		"DBUser":                  c.DBUser,
		"DBPass":                  "xxxxx",
		"DBSchema":                c.DBSchema,
		"DBDriver":                c.DBDriver,
		"DBOutboxTable":           c.DBOutboxTable,
		"KafkaHost":               c.KafkaHost,
		"KafkaTopic":              c.KafkaTopic,
		"KafkaGroupId":            c.KafkaGroupId,
		"KafkaDeadLetterTopic":    c.KafkaDeadLetterTopic,
		"KafkaPublishAttempts":    c.KafkaPublishAttempts,
		"KafkaLingerMs":           c.KafkaLingerMs,
		"KafkaBatchSizeBytes":     c.KafkaBatchSizeBytes,
		"TLSEnable":               c.TLSEnable,
		"TLSSkipVerifyPeer":       c.TLSSkipVerifyPeer,
		"WriteConcurrency":        c.WriteConcurrency,
		"PollFrequencyMs":         c.PollFrequencyMs,
		"StartupDelayMs":          c.StartupDelayMs,
		"BatchSize":               c.BatchSize,
		"ConsumerBufferCapacity":  c.ConsumerBufferCapacity,
		"ConsumerHandlerAttempts": c.ConsumerHandlerAttempts,
		"DocumentServiceUrl":      c.DocumentServiceUrl,
		"RunConsumer":             c.RunConsumer,
		"RunCleanup":              c.RunCleanup,
		"RunOptimize":             c.RunOptimize,
		"SidecarProxyUrl":         c.SidecarProxyUrl,
	})
}

func (d DbDriver) MySQL() bool {
	return d == MySQL
}

func (d DbDriver) Postgres() bool {
	return d == Postgres
}

func (d DbDriver) String() string {
	return string(d)
}
