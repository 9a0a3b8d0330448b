package sql

import (
	"strings"
	"testing"
)

func TestPostgresQueryProvider_InsertSql(t *testing.T) {
	actual := createPostgresProvider().InsertSql()

	exp := `INSERT INTO docshelf_outbox (event_type, payload) VALUES ($1, $2)`

	if actual != exp {
		t.Errorf(`received "%s" but expected "%s"`, actual, exp)
	}
}

func TestPostgresQueryProvider_RecordsSuccessUpdateSql(t *testing.T) {
	actual := createPostgresProvider().RecordsSuccessUpdateSql(3)

	exp := `UPDATE docshelf_outbox SET processed = TRUE, error_reason = '', attempts = attempts + 1 WHERE id IN ($1, $2, $3)`

	if actual != exp {
		t.Errorf(`received "%s" but expected "%s"`, actual, exp)
	}
}

func TestPostgresQueryProvider_BatchCreationSql(t *testing.T) {
	actual := createPostgresProvider().BatchCreationSql(20, 3)

	if !strings.Contains(actual, "LIMIT 20") {
		t.Errorf("batch creation SQL does not contain the correct batch size limit")
	}

	if !strings.Contains(actual, "processed = FALSE") {
		t.Errorf("batch creation SQL does not exclude processed records")
	}

	if !strings.Contains(actual, "attempts < 3") {
		t.Errorf("batch creation SQL does not exclude records at the publish attempt cap")
	}
}

func TestPostgresQueryProvider_RecordErroredUpdateSql(t *testing.T) {
	actual := createPostgresProvider().RecordErroredUpdateSql()

	if !strings.Contains(actual, "batch_id = NULL, claimed_at = NULL") {
		t.Errorf("record errored SQL does not release the claim as expected")
	}
}

func TestPostgresQueryProvider_DeleteProcessedSql(t *testing.T) {
	actual := createPostgresProvider().DeleteProcessedSql()

	if !strings.Contains(actual, "WHERE processed = TRUE AND created_at_utc <= $1") {
		t.Errorf("delete SQL does not contain a valid constraint")
	}
}

func TestPostgresQueryProvider_BatchFetchSql(t *testing.T) {
	actual := createPostgresProvider().BatchFetchSql()

	exp := `SELECT name, foo FROM docshelf_outbox WHERE batch_id = $1 ORDER BY created_at_utc ASC, id ASC`

	if actual != exp {
		t.Errorf(`received "%s" but expected "%s"`, actual, exp)
	}
}

func createPostgresProvider() *PostgresQueryProvider {
	return &PostgresQueryProvider{
		Columns: []string{"name", "foo"},
		Table:   "docshelf_outbox",
	}
}
