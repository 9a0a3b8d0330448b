//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"os"
	"time"

	"docshelf/event-pipeline/config"
	"docshelf/event-pipeline/event"
	h "docshelf/event-pipeline/integration/http"
	testkafka "docshelf/event-pipeline/integration/kafka"
	"docshelf/event-pipeline/kafka"
	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/outbox"
	"docshelf/event-pipeline/outbox/data"
	"docshelf/event-pipeline/outbox/poller"
	"docshelf/event-pipeline/outbox/processor"

	"github.com/Shopify/sarama"
)

const (
	testModeDocker = "docker"
	testTopic      = "docshelf.events.test"
)

var (
	cfg          *config.Config
	db           *sql.DB
	syncProducer *testkafka.SyncProducer
	repo         outbox.Repository
	server       *httptest.Server
	pub          kafka.Publisher
	registry     *event.Registry
)

func init() {
	server = httptest.NewServer(h.GetHttpTestHandlerFunc())
	setupConfig()

	syncProducer = testkafka.NewSyncProducer(cfg.KafkaHost, kafka.NewSaramaConfig(cfg))
	pub = kafka.NewPublisherWithProducer(syncProducer, cfg.KafkaTopic)

	db, _ = data.NewDB(cfg)
	purgeOutboxTable()

	repo = outbox.NewRepository(db, cfg)
	registry = newPublishingRegistry()

	go pollForEvents()
}

func newPublishingRegistry() *event.Registry {
	r := event.NewRegistry()
	publish := kafka.NewPublishHandler(pub)

	if err := event.Register[event.UserDeleteEvent](r, nil); err != nil {
		panic(err)
	}
	if err := event.Register[event.DocumentPurgedEvent](r, nil); err != nil {
		panic(err)
	}

	for _, name := range []string{event.TypeUserDelete, event.TypeDocumentPurged} {
		if err := r.Bind(name, publish); err != nil {
			panic(err)
		}
	}

	return r
}

func returnErrorFromSyncProducerForMessage(msgBody string, err error) {
	syncProducer.AddError(msgBody, err)
}

func clearErrorFromSyncProducerForMessage(msgBody string) {
	syncProducer.ClearError(msgBody)
}

func consumeFromKafkaUntilMessagesReceived(exp []testkafka.MessageExpectation) *testkafka.ConsumerHandler {
	doneCh := make(chan bool)
	ctx, cancel := context.WithCancel(context.Background())

	cons := testkafka.NewConsumerHandler(exp)

	cl, err := sarama.NewConsumerGroup(cfg.KafkaHost, "test-cons", kafka.NewSaramaConfig(cfg))
	if err != nil {
		log.Logger.WithError(err).Panic("error occurred creating Kafka consumer group client")
	}

	topics := testkafka.GetTopicsFromMessageExpectations(exp)
	go func() {
		for {
			log.Logger.Debugf("about to consume topics %s", topics)
			if err := cl.Consume(ctx, topics, cons); err != nil {
				log.Logger.WithError(err).Panic("error when consuming from Kafka")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		for {
			if cons.MessagesFound() {
				doneCh <- true
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	select {
	case <-time.After(10 * time.Second):
		break
	case <-doneCh:
		break
	}

	cancel()

	if err := cl.Close(); err != nil {
		log.Logger.WithError(err).Panic("error occurred closing Kafka client")
	}

	return cons
}

func setupConfig() *config.Config {
	var runInDocker bool
	if os.Getenv("GO_TEST_MODE") == testModeDocker {
		runInDocker = true
	}

	cfg = &config.Config{
		PollFrequencyMs:      1000,
		SidecarProxyUrl:      server.URL,
		KafkaPublishAttempts: 3,
		BatchSize:            250,
		KafkaHost:            []string{"localhost:9092"},
		KafkaTopic:           testTopic,
		KafkaLingerMs:        5,
		KafkaBatchSizeBytes:  65536,
		DBUser:               "docshelf",
		DBPass:               "docshelf",
		DBSchema:             "docshelf",
		DBOutboxTable:        "docshelf_outbox",
	}

	if os.Getenv("DB_DRIVER") == string(config.MySQL) {
		cfg.DBDriver = config.MySQL
		cfg.DBPort = 13306
	} else {
		cfg.DBDriver = config.Postgres
		cfg.DBPort = 15432
	}

	if runInDocker {
		cfg.DBHost = string(cfg.DBDriver)
		cfg.DBPort = cfg.DBPort - 10000
		cfg.KafkaHost = []string{"kafka:29092"}
	} else {
		cfg.DBHost = "localhost"
	}

	return cfg
}

func pollForEvents() {
	batchCh := make(chan *outbox.Batch, 10)

	go poller.New(repo, batchCh).Poll(context.Background(), time.Millisecond*100)

	processor.NewBatchProcessor(repo, registry).ListenAndProcess(context.Background(), batchCh)
}

func waitForBatchToBePolled() {
	time.Sleep(time.Millisecond * 200)
}
