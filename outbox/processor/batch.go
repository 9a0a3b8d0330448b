package processor

import (
	"context"

	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/log"
	"docshelf/event-pipeline/outbox"

	"github.com/sirupsen/logrus"
)

type repository interface {
	CommitBatch(ctx context.Context, batch *outbox.Batch)
}

type dispatcher interface {
	Dispatch(ctx context.Context, env event.Envelope) error
}

func NewBatchProcessor(r repository, d dispatcher) BatchProcessor {
	return BatchProcessor{
		repo:       r,
		dispatcher: d,
	}
}

type BatchProcessor struct {
	repo       repository
	dispatcher dispatcher
}

// ListenAndProcess drains claimed batches, resolves each record to its event
// type and hands it to the registered handler. A record that fails type
// resolution, decoding or handling is marked failed and left unprocessed for
// the next pass; it never aborts its siblings. The whole outcome is committed
// in one transaction per batch.
func (p BatchProcessor) ListenAndProcess(parent context.Context, batches <-chan *outbox.Batch) {
	for {
		select {
		case b := <-batches:
			if b == nil || len(b.Records) == 0 {
				break
			}

			for _, rec := range b.Records {
				env := event.Envelope{Type: rec.EventType, Payload: rec.Payload}

				log.Logger.WithFields(logrus.Fields{"record_id": rec.Id, "event_type": rec.EventType}).Debug("dispatching outbox record")
				if err := p.dispatcher.Dispatch(parent, env); err != nil {
					log.Logger.WithError(err).WithFields(logrus.Fields{
						"record_id":  rec.Id,
						"event_type": rec.EventType,
						"payload":    string(rec.Payload),
					}).Error("error encountered whilst dispatching an outbox record")
					rec.ErrorReason = err
				}
			}

			p.repo.CommitBatch(parent, b)
		case <-parent.Done():
			return
		}
	}
}
