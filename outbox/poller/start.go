package poller

import (
	"context"
	"time"

	"docshelf/event-pipeline/config"
	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/outbox"
	"docshelf/event-pipeline/outbox/processor"
)

// Start wires the polling loop to the batch processors and launches them as
// background goroutines. The first pass is delayed by the configured startup
// delay so schema migrations have settled before the outbox is claimed.
func Start(ctx context.Context, cfg *config.Config, repo outbox.Repository, registry *event.Registry) {
	logger := log.Logger.WithField("config", cfg)
	logger.Info("starting outbox publisher polling")

	batchCh := make(chan *outbox.Batch, 10)

	go func() {
		delay := cfg.GetStartupDelayDurationInMs()
		if delay > 0 {
			logger.Infof("delaying the first outbox pass by %s", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}

		New(repo, batchCh).Poll(ctx, cfg.GetPollIntervalDurationInMs())
	}()

	proc := processor.NewBatchProcessor(repo, registry)
	for i := 0; i < cfg.WriteConcurrency; i++ {
		go proc.ListenAndProcess(ctx, batchCh)
	}
}
