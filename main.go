package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"docshelf/event-pipeline/config"
	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/job"
	"docshelf/event-pipeline/kafka"
	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/outbox"
	"docshelf/event-pipeline/outbox/data"
	"docshelf/event-pipeline/outbox/poller"
	"docshelf/event-pipeline/prometheus"
	"docshelf/event-pipeline/service"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	cfg, err := config.NewConfig()
	if err != nil {
		log.Logger.Fatalf("unable to create configuration: %s", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	db, dbClose := data.NewDB(cfg)
	defer dbClose()

	var exitCode int
	switch {
	case cfg.RunCleanup:
		exitCode = job.RunCleanup(outbox.NewRepository(db, cfg), cfg)
	case cfg.RunOptimize:
		exitCode = job.RunOptimize(db, cfg)
	case cfg.RunConsumer:
		exitCode = runConsumer(ctx, cfg, db)
	default:
		runPublisher(ctx, cfg, db)
	}

	if exitCode > 0 {
		dbClose() // we call this manually because os.Exit() does not respect defer
		os.Exit(exitCode)
	}
}

// runPublisher relays outbox records onto the broker: every registered event
// type is bound to the Kafka publish handler, and the poller feeds claimed
// batches through that binding.
func runPublisher(ctx context.Context, cfg *config.Config, db *sql.DB) {
	pub := kafka.NewPublisher(kafka.NewSaramaConfig(cfg), cfg.KafkaHost, cfg.KafkaTopic)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Logger.WithError(err).Error("error closing the Kafka publisher")
		}
	}()

	registry := event.NewRegistry()
	publish := kafka.NewPublishHandler(pub)
	registerOutboundTypes(registry, publish)

	repo := outbox.NewRepository(db, cfg)
	poller.Start(ctx, cfg, repo, registry)

	go prometheus.ObserveQueueSize(repo, ctx)
	go prometheus.ObserveTotalSize(repo, ctx)
	prometheus.StartHttpServer(cfg, db)
}

// runConsumer joins the consumer group and applies events to this service's
// own state, deleting a removed user's documents.
func runConsumer(ctx context.Context, cfg *config.Config, db *sql.DB) int {
	registry := event.NewRegistry()

	documents := service.NewDocumentsClient(cfg.DocumentServiceUrl)
	if err := event.Register(registry, service.NewUserDeleteHandler(documents)); err != nil {
		log.Logger.WithError(err).Error("unable to bind the user deletion handler")
		return 1
	}

	err := event.Register(registry, func(ctx context.Context, events []event.DocumentPurgedEvent) error {
		for _, e := range events {
			log.Logger.WithFields(logrus.Fields{
				"document_id": e.DocumentId,
				"owner_id":    e.OwnerId,
			}).Info("document purge confirmed")
		}
		return nil
	})
	if err != nil {
		log.Logger.WithError(err).Error("unable to bind the document purge handler")
		return 1
	}

	saramaCfg := kafka.NewSaramaConfig(cfg)

	var deadLetters kafka.Publisher
	if cfg.KafkaDeadLetterTopic != "" {
		deadLetters = kafka.NewPublisher(saramaCfg, cfg.KafkaHost, cfg.KafkaDeadLetterTopic)
		defer func() {
			if err := deadLetters.Close(); err != nil {
				log.Logger.WithError(err).Error("error closing the dead letter publisher")
			}
		}()
	}

	consumer, err := kafka.NewConsumer(cfg, saramaCfg, registry, deadLetters)
	if err != nil {
		log.Logger.WithError(err).Error("unable to create the Kafka consumer")
		return 1
	}

	go prometheus.ObserveConsumerBuffer(consumer, ctx)
	go prometheus.StartHttpServer(cfg, db)

	if err = consumer.Run(ctx); err != nil {
		log.Logger.WithError(err).Error("the consumer terminated with an error")
		return 1
	}

	return 0
}

func registerOutboundTypes(registry *event.Registry, h event.Handler) {
	register := func(name string, err error) {
		if err != nil {
			log.Logger.Fatalf("unable to bind the publish handler for %s: %s", name, err)
		}
	}

	register(event.TypeUserDelete, event.Register[event.UserDeleteEvent](registry, nil))
	register(event.TypeDocumentPurged, event.Register[event.DocumentPurgedEvent](registry, nil))

	for _, name := range []string{event.TypeUserDelete, event.TypeDocumentPurged} {
		register(name, registry.Bind(name, h))
	}
}
