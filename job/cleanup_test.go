package job

import (
	"net/http"
	"testing"

	"docshelf/event-pipeline/job/test"
	outboxtest "docshelf/event-pipeline/outbox/test"
)

func TestNewCleanup(t *testing.T) {
	repo := outboxtest.NewMockRepository()

	if newCleanup(repo, &http.Client{}) == nil {
		t.Errorf("received nil instead of cleanup job")
	}
}

func TestNewCleanupWithDefaultClient(t *testing.T) {
	j := newCleanupWithDefaultClient(outboxtest.NewMockRepository())
	if j == nil {
		t.Errorf("received nil instead of cleanup job")
	}
}

func TestCleanup_Execute(t *testing.T) {
	repo := outboxtest.NewMockRepository()
	repo.SetDeletedRowsCount(100)
	cl := test.NewMockHttpClient()
	j := newCleanup(repo, cl)

	rows, err := j.Execute()
	if err != nil {
		t.Errorf("unexpected error received: %s", err)
	}

	if rows != 100 {
		t.Errorf("expected 100 deleted rows, got %d", rows)
	}

	if len(cl.SentReqs) > 0 {
		t.Errorf("unexpected call to sidecar proxy /quitquitquit")
	}
}

func TestCleanup_ExecuteWithSidecarProxyQuit(t *testing.T) {
	repo := outboxtest.NewMockRepository()
	repo.SetDeletedRowsCount(99)
	cl := test.NewMockHttpClient()
	j := newCleanup(repo, cl)
	j.EnableSideCarProxyQuit("http://localhost:9090")

	if _, err := j.Execute(); err != nil {
		t.Errorf("unexpected error received: %s", err)
	}

	if cl.SentReqs["http://localhost:9090/quitquitquit"] == false {
		t.Errorf("expected a call to sidecar proxy http://localhost:9090/quitquitquit")
	}
}

func TestCleanup_ExecuteWithRepoError(t *testing.T) {
	repo := outboxtest.NewMockRepository()
	repo.ReturnErrors()
	cl := test.NewMockHttpClient()
	j := newCleanup(repo, cl)

	if _, err := j.Execute(); err == nil {
		t.Error("expected an error, but got nil")
	}

	if len(cl.SentReqs) > 0 {
		t.Errorf("unexpected call to sidecar proxy /quitquitquit")
	}
}

func TestCleanup_ExecuteWithHttpClientError(t *testing.T) {
	repo := outboxtest.NewMockRepository()
	cl := test.NewMockHttpClient()
	cl.ReturnErrors()
	j := newCleanup(repo, cl)
	j.EnableSideCarProxyQuit("http://localhost:15000/")

	if _, err := j.Execute(); err == nil {
		t.Error("expected an error, but got nil")
	}
}
