package poller

import (
	"context"
	"time"

	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/outbox"
)

type Poller interface {
	Poll(ctx context.Context, interval time.Duration)
}

type repository interface {
	GetBatch(ctx context.Context) (*outbox.Batch, error)
}

func New(r repository, ch chan<- *outbox.Batch) Poller {
	return &outboxPoller{
		ch:   ch,
		repo: r,
	}
}

type outboxPoller struct {
	ch   chan<- *outbox.Batch
	repo repository
}

// Poll claims batches of pending records on a fixed interval and sends them
// for processing. An empty pass sleeps for the same interval as any other.
func (p outboxPoller) Poll(ctx context.Context, interval time.Duration) {
	for {
		batch, err := p.repo.GetBatch(ctx)
		if err != nil {
			if err != outbox.ErrNoEvents {
				log.Logger.WithError(err).Errorf("an unexpected error occurred when polling the outbox: %s", err)
			}
		} else {
			select {
			case p.ch <- batch:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}
