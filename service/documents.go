package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"docshelf/event-pipeline/event"
	"docshelf/event-pipeline/log"

	"github.com/pkg/errors"
)

const defaultRequestTimeout = time.Second * 10

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DocumentsClient talks to the docshelf documents service.
type DocumentsClient struct {
	baseUrl string
	client  httpDoer
}

func NewDocumentsClient(baseUrl string) *DocumentsClient {
	return NewDocumentsClientWithDoer(baseUrl, &http.Client{
		Timeout: defaultRequestTimeout,
	})
}

func NewDocumentsClientWithDoer(baseUrl string, cl httpDoer) *DocumentsClient {
	return &DocumentsClient{
		baseUrl: baseUrl,
		client:  cl,
	}
}

// DeleteUserDocuments removes every document owned by the given user. A user
// that no longer has any documents is not an error, so the same event can be
// handled any number of times.
func (c *DocumentsClient) DeleteUserDocuments(ctx context.Context, userId int64) error {
	url := fmt.Sprintf("%s/users/%s/documents", c.baseUrl, strconv.FormatInt(userId, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return errors.Wrap(err, "service: unable to create document deletion request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "service: document deletion request for user %d failed", userId)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// nothing left to delete for this user
		return nil
	case resp.StatusCode >= 300:
		return errors.Errorf("service: document deletion for user %d returned status %d", userId, resp.StatusCode)
	}

	return nil
}

// NewUserDeleteHandler returns the handler that cascades a user deletion into
// the documents service.
func NewUserDeleteHandler(c *DocumentsClient) func(ctx context.Context, events []event.UserDeleteEvent) error {
	return func(ctx context.Context, events []event.UserDeleteEvent) error {
		for _, e := range events {
			if err := c.DeleteUserDocuments(ctx, e.UserId); err != nil {
				return err
			}

			log.Logger.WithField("user_id", e.UserId).Info("deleted documents for removed user")
		}

		return nil
	}
}
