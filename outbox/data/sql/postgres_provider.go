package sql

import (
	"fmt"
	"strings"
)

type PostgresQueryProvider struct {
	Table   string
	Columns []string
}

func (p PostgresQueryProvider) InsertSql() string {
	return fmt.Sprintf(`INSERT INTO %s (event_type, payload) VALUES ($1, $2)`, p.Table)
}

func (p PostgresQueryProvider) BatchCreationSql(batchSize, maxAttempts int) string {
	q := `UPDATE %s SET batch_id = $1, claimed_at = NOW()
		WHERE id IN(
			SELECT id FROM %s WHERE processed = FALSE AND attempts < %d AND (batch_id IS NULL OR claimed_at < $2) ORDER BY created_at_utc ASC, id ASC LIMIT %d)`

	return fmt.Sprintf(q, p.Table, p.Table, maxAttempts, batchSize)
}

func (p PostgresQueryProvider) BatchFetchSql() string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE batch_id = $1 ORDER BY created_at_utc ASC, id ASC`, strings.Join(p.Columns, ", "), p.Table)
}

func (p PostgresQueryProvider) RecordsSuccessUpdateSql(idCount int) string {
	q := `UPDATE %s SET processed = TRUE, error_reason = '', attempts = attempts + 1 WHERE id IN (%s)`

	var placeholders []string
	for i := 1; i <= idCount; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}

	return fmt.Sprintf(q, p.Table, strings.Join(placeholders, ", "))
}

func (p PostgresQueryProvider) RecordErroredUpdateSql() string {
	q := `UPDATE %s SET error_reason = $1, batch_id = NULL, claimed_at = NULL, attempts = attempts + 1 WHERE id = $2`

	return fmt.Sprintf(q, p.Table)
}

func (p PostgresQueryProvider) DeleteProcessedSql() string {
	return fmt.Sprintf("DELETE FROM %s WHERE processed = TRUE AND created_at_utc <= $1", p.Table)
}

func (p PostgresQueryProvider) GetQueueSizeSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE processed = FALSE", p.Table)
}

func (p PostgresQueryProvider) GetTotalSizeSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", p.Table)
}
