package outbox

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Batch struct {
	Id      uuid.UUID
	Records []*Record
}

// Record is a single pending event row. A record is written in the same
// transaction as the business change that produced it and is mutated only by
// the publisher, which flips Processed once its handler has accepted the event.
type Record struct {
	Id          uint
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	Processed   bool
	BatchId     *uuid.UUID
	ClaimedAt   sql.NullTime
	Attempts    int
	ErrorReason error
}
