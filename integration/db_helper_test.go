//go:build integration
// +build integration

package integration

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docshelf/event-pipeline/outbox"
)

func purgeOutboxTable() {
	_, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s;", cfg.DBOutboxTable))
	if err != nil {
		panic(fmt.Sprintf("an error occurred cleaning the outbox table for tests: %s", err))
	}
}

func insertOutboxRecords(recs []*outbox.Record) {
	tx, err := db.Begin()
	if err != nil {
		panic(fmt.Sprintf("error creating a DB transaction: %s", err))
	}

	for _, rec := range recs {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().In(time.UTC)
		}

		var id int64
		if cfg.DBDriver.MySQL() {
			q := fmt.Sprintf("INSERT INTO `%s` SET event_type = ?, payload = ?, created_at_utc = ?, processed = ?, batch_id = ?, claimed_at = ?, attempts = ?;", cfg.DBOutboxTable)
			res, err := tx.Exec(q, rec.EventType, rec.Payload, rec.CreatedAt, rec.Processed, rec.BatchId, rec.ClaimedAt, rec.Attempts)
			if err != nil {
				panic(fmt.Sprintf("failed to insert outbox record in MySQL: %s", err))
			}

			id, err = res.LastInsertId()
			if err != nil {
				panic(fmt.Sprintf("failed to determine last insert ID for the inserted outbox record: %s", err))
			}
		} else {
			q := fmt.Sprintf("INSERT INTO %s(event_type, payload, created_at_utc, processed, batch_id, claimed_at, attempts) VALUES($1, $2, $3, $4, $5, $6, $7) RETURNING id;", cfg.DBOutboxTable)
			err = tx.QueryRow(q, rec.EventType, rec.Payload, rec.CreatedAt, rec.Processed, rec.BatchId, rec.ClaimedAt, rec.Attempts).Scan(&id)
			if err != nil {
				panic(fmt.Sprintf("failed to insert outbox record in Postgres: %s", err))
			}
		}
		rec.Id = uint(id)
	}

	err = tx.Commit()
	if err != nil {
		panic(fmt.Sprintf("error committing DB transaction: %s", err))
	}
}

func getOutboxRecord(id uint) *outbox.Record {
	q := fmt.Sprintf("SELECT id, event_type, payload, created_at_utc, processed, batch_id, claimed_at, attempts, error_reason FROM %s WHERE id = ?", cfg.DBOutboxTable)
	if cfg.DBDriver.Postgres() {
		q = strings.Replace(q, "?", "$1", 1)
	}

	res := &outbox.Record{}
	var errReason sql.NullString
	row := db.QueryRow(q, id)
	err := row.Scan(&res.Id, &res.EventType, &res.Payload, &res.CreatedAt, &res.Processed, &res.BatchId, &res.ClaimedAt, &res.Attempts, &errReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			panic(fmt.Sprintf("no outbox records found with ID %d", id))
		}
		panic(fmt.Sprintf("an error occurred scanning the outbox record: %s", err))
	}

	if errReason.String != "" {
		res.ErrorReason = errors.New(errReason.String)
	}

	return res
}

func outboxRecordExists(id uint) bool {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", cfg.DBOutboxTable)
	if cfg.DBDriver.Postgres() {
		q = strings.Replace(q, "?", "$1", 1)
	}

	var count int
	res := db.QueryRow(q, id)
	if err := res.Scan(&count); err != nil {
		panic(err)
	}

	return count > 0
}
