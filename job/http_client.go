package job

import (
	"io"
	"net/http"
)

// httpPoster is the slice of http.Client the sidecar quitter needs, kept
// narrow so job tests can swap in a recording client.
type httpPoster interface {
	Post(url, contentType string, body io.Reader) (resp *http.Response, err error)
}
