// Package heartbeat implements the periodic HTTP announcement to the
// registry service (§6 Heartbeat), run on a worker goroutine so the main
// tick loop never blocks on it. Grounded in original_source/src/server.c's
// server_heartbeat, using github.com/hashicorp/go-retryablehttp (adopted
// from nabbar-golib, see SPEC_FULL.md) for the bounded-retry GET instead of
// a bare net/http client.
package heartbeat

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// Request is everything server_heartbeat needs to fill in the query
// string.
type Request struct {
	URL       string
	Port      int
	MaxUsers  int
	Users     int
	Public    bool
	Salt      string
	Software  string
	Name      string
	Version   int
}

// client is a package-level retryable client: nabbar-golib's own HTTP calls
// (e.g. its artifact fetchers) reuse one client rather than building a
// fresh one per request.
var client = func() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.Logger = nil
	return c
}()

// Send issues one heartbeat GET and returns the response body (expected to
// carry the public server URL on success). Failures are logged and also
// returned; per §7, heartbeat errors never stop the server.
func Send(req Request, log *logrus.Logger) (string, error) {
	q := url.Values{}
	q.Set("port", fmt.Sprintf("%d", req.Port))
	q.Set("web", "True")
	q.Set("max", fmt.Sprintf("%d", req.MaxUsers))
	q.Set("users", fmt.Sprintf("%d", req.Users))
	q.Set("public", fmt.Sprintf("%t", req.Public))
	q.Set("salt", req.Salt)
	q.Set("version", fmt.Sprintf("%d", req.Version))
	q.Set("software", req.Software)
	q.Set("name", req.Name)

	full := req.URL + "?" + q.Encode()

	resp, err := client.Get(full)
	if err != nil {
		log.WithError(err).Warn("heartbeat request failed")
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Warn("heartbeat response read failed")
		return "", err
	}
	if resp.StatusCode != 200 {
		log.WithField("status", resp.StatusCode).Warn("heartbeat rejected")
		return "", fmt.Errorf("heartbeat: status %d", resp.StatusCode)
	}
	return string(body), nil
}

// SendAsync runs Send on a new goroutine and invokes onSuccess with the
// unparsed response body every time a heartbeat succeeds with a non-empty
// body; it never blocks the caller.
func SendAsync(req Request, log *logrus.Logger, onSuccess func(publicURL string)) {
	go func() {
		body, err := Send(req, log)
		if err == nil && body != "" && onSuccess != nil {
			onSuccess(body)
		}
	}()
}

// Interval is how often §6 says the server should announce itself.
const Interval = 45 * time.Second
