package outbox

import (
	"context"
	"database/sql"
	"time"

	"docshelf/event-pipeline/config"
	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/log"
	s "docshelf/event-pipeline/outbox/data/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// staleClaimWindow is how long a claimed but uncommitted record stays owned by
// a batch before it becomes claimable again, covering publisher crashes
// between claim and commit.
const staleClaimWindow = 10 * time.Minute

var (
	ErrNoEvents = errors.New("no events in the batch")

	columns = []string{"id", "event_type", "payload", "created_at_utc", "processed", "batch_id", "claimed_at", "attempts"}
)

type queryProvider interface {
	InsertSql() string
	BatchCreationSql(batchSize, maxAttempts int) string
	BatchFetchSql() string
	RecordErroredUpdateSql() string
	RecordsSuccessUpdateSql(idCount int) string
	DeleteProcessedSql() string
	GetQueueSizeSql() string
	GetTotalSizeSql() string
}

type Repository struct {
	db            *sql.DB
	cfg           *config.Config
	queryProvider queryProvider
}

func NewRepository(db *sql.DB, cfg *config.Config) Repository {
	return NewRepositoryWithQueryProvider(db, cfg, newQueryProvider(cfg.DBDriver, cfg.DBOutboxTable, columns))
}

func NewRepositoryWithQueryProvider(db *sql.DB, cfg *config.Config, qp queryProvider) Repository {
	return Repository{
		db:            db,
		cfg:           cfg,
		queryProvider: qp,
	}
}

// Add inserts a pending record inside the caller's transaction, so the event
// row and the business mutation that produced it commit or roll back together.
func (r Repository) Add(ctx context.Context, tx *sql.Tx, env event.Envelope) error {
	_, err := tx.ExecContext(ctx, r.queryProvider.InsertSql(), env.Type, env.Payload)
	if err != nil {
		return errors.Errorf("outbox: error inserting event record in repository: %s", err)
	}

	return nil
}

// GetBatch claims a new batch of unprocessed records and returns them. The
// claim prevents other publisher replicas picking up the same records; claims
// abandoned by a crashed publisher are re-claimable after staleClaimWindow.
// Records that have already failed KafkaPublishAttempts times are never
// claimed again; they keep their last error reason until an operator steps in.
// If there are no claimable records the special ErrNoEvents value is returned
// as the error.
func (r Repository) GetBatch(ctx context.Context) (*Batch, error) {
	batchId := uuid.New()
	stale := time.Now().In(time.UTC).Add(-staleClaimWindow)

	res, err := r.db.ExecContext(ctx, r.queryProvider.BatchCreationSql(r.cfg.BatchSize, r.cfg.KafkaPublishAttempts), batchId, stale)
	if err != nil {
		return nil, errors.Errorf("outbox: error creating a batch of events in repository: %s", err)
	}

	// if there is an error determining the affected rows, we treat it as a failed query
	// as the drivers we use never return an error value here
	count, _ := res.RowsAffected()
	if count < 1 {
		return nil, ErrNoEvents
	}

	rows, err := r.db.QueryContext(ctx, r.queryProvider.BatchFetchSql(), batchId)
	if err != nil {
		return nil, errors.Errorf("outbox: error fetching created event batch in repository: %s", err)
	}
	defer rows.Close()

	batch := &Batch{
		Id:      batchId,
		Records: []*Record{},
	}

	for rows.Next() {
		rec := &Record{}
		err := rows.Scan(&rec.Id, &rec.EventType, &rec.Payload, &rec.CreatedAt, &rec.Processed, &rec.BatchId, &rec.ClaimedAt, &rec.Attempts)
		if err != nil {
			return nil, errors.Errorf("outbox: error scanning event result into memory in repository: %s", err)
		}
		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}

// CommitBatch persists the outcome of a publisher pass in a single
// transaction: successful records become processed, failed records keep their
// error and are released for the next pass. A failure here leaves every record
// in the batch unprocessed and safe to retry.
func (r Repository) CommitBatch(ctx context.Context, batch *Batch) {
	log.Logger.WithFields(logrus.Fields{
		"batch_id":    batch.Id.String(),
		"num_records": len(batch.Records),
	}).Debug("starting batch commit")

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Logger.Errorf("error occurred starting a DB transaction to commit the batch: %s", err)
		return
	}

	var successIds []interface{}
	for _, rec := range batch.Records {
		if rec.ErrorReason != nil {
			r.updateErroredRecord(ctx, tx, rec)
		} else {
			successIds = append(successIds, rec.Id)
		}
	}

	if len(successIds) > 0 {
		err = r.updateSuccessfulRecords(ctx, tx, successIds)
		if err != nil {
			log.Logger.Errorf("error occurred updating successful outbox records for batch ID %s: %s", batch.Id, err)
			err = tx.Rollback()
			if err != nil {
				log.Logger.Errorf("error rolling back the DB transaction: %s", err)
			}
			return
		}
	}

	err = tx.Commit()
	if err != nil {
		log.Logger.Errorf("error occurred committing transaction for batch: %s", err)
	}
}

func (r Repository) DeleteProcessed(olderThan time.Time) (int64, error) {
	q := r.queryProvider.DeleteProcessedSql()
	res, err := r.db.Exec(q, olderThan)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r Repository) GetQueueSize() (uint, error) {
	q := r.queryProvider.GetQueueSizeSql()
	res := r.db.QueryRow(q)

	var count uint
	err := res.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r Repository) GetTotalSize() (uint, error) {
	q := r.queryProvider.GetTotalSizeSql()
	res := r.db.QueryRow(q)

	var count uint
	err := res.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r Repository) updateErroredRecord(ctx context.Context, tx *sql.Tx, rec *Record) {
	q := r.queryProvider.RecordErroredUpdateSql()
	_, err := tx.ExecContext(ctx, q, rec.ErrorReason.Error(), rec.Id)

	log.Logger.WithFields(logrus.Fields{"query": q, "error_reason": rec.ErrorReason, "id": rec.Id}).Debug("updating errored record")

	if err != nil {
		log.Logger.Errorf("error occurred updating the outbox record with ID %d: %s", rec.Id, err)
	}
}

func (r Repository) updateSuccessfulRecords(ctx context.Context, tx *sql.Tx, ids []interface{}) error {
	q := r.queryProvider.RecordsSuccessUpdateSql(len(ids))

	log.Logger.WithFields(logrus.Fields{"query": q, "ids": ids}).Debug("updating successful records")

	_, err := tx.ExecContext(ctx, q, ids...)

	return err
}

func newQueryProvider(d config.DbDriver, table string, columns []string) queryProvider {
	switch true {
	case d.Postgres():
		return &s.PostgresQueryProvider{
			Table:   table,
			Columns: columns,
		}
	case d.MySQL():
		return &s.MysqlQueryProvider{
			Table:   table,
			Columns: columns,
		}
	}

	return nil
}
