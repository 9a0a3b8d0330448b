package job

import (
	"net/http"
	"reflect"
	"testing"

	"docshelf/event-pipeline/config"
	"docshelf/event-pipeline/job/test"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNewOptimizeTableWithDefaultClientForPostgres(t *testing.T) {
	db, _, _ := sqlmock.New()

	exp := &postgresOptimizeTable{
		Db:        db,
		TableName: "docshelf_outbox",
		SidecarQuitter: SidecarQuitter{
			Client: http.DefaultClient,
		},
	}

	act := newOptimizeTableWithDefaultClient(db, "docshelf_outbox", config.Postgres)
	if !reflect.DeepEqual(exp, act) {
		t.Error("expected postgresOptimizeTable does not match actual")
	}
}

func TestNewOptimizeTableWithDefaultClientForMySQL(t *testing.T) {
	db, _, _ := sqlmock.New()

	exp := &mysqlOptimizeTable{
		Db:        db,
		TableName: "docshelf_outbox",
		SidecarQuitter: SidecarQuitter{
			Client: http.DefaultClient,
		},
	}

	act := newOptimizeTableWithDefaultClient(db, "docshelf_outbox", config.MySQL)
	if !reflect.DeepEqual(exp, act) {
		t.Error("expected mysqlOptimizeTable does not match actual")
	}
}

func TestNewOptimizeTableForPostgres(t *testing.T) {
	db, _, _ := sqlmock.New()
	cl := test.NewMockHttpClient()

	exp := &postgresOptimizeTable{
		Db:        db,
		TableName: "foo",
		SidecarQuitter: SidecarQuitter{
			Client: cl,
		},
	}

	act := newOptimizeTable(db, "foo", config.Postgres, cl)
	if !reflect.DeepEqual(exp, act) {
		t.Error("expected postgresOptimizeTable does not match actual")
	}
}

func TestNewOptimizeTableForMySQL(t *testing.T) {
	db, _, _ := sqlmock.New()
	cl := test.NewMockHttpClient()

	exp := &mysqlOptimizeTable{
		Db:        db,
		TableName: "foo",
		SidecarQuitter: SidecarQuitter{
			Client: cl,
		},
	}

	act := newOptimizeTable(db, "foo", config.MySQL, cl)
	if !reflect.DeepEqual(exp, act) {
		t.Error("expected mysqlOptimizeTable does not match actual")
	}
}

func TestNewOptimizeTableWithUnknownDriver(t *testing.T) {
	db, _, _ := sqlmock.New()

	if act := newOptimizeTable(db, "foo", config.DbDriver("sqlite"), test.NewMockHttpClient()); act != nil {
		t.Errorf("expected nil for an unknown driver, got %#v", act)
	}
}
