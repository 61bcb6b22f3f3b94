// Package nuxeo is a minimal client for the Nuxeo REST and Automation APIs,
// covering exactly the calls face-tagger needs: fetching documents with
// properties, NXQL lookups, and transactional property writes.
package nuxeo

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client represents a client for one Nuxeo server.
type Client struct {
	Url       string
	parsedURL *url.URL
	username  string
	password  string
	http      *http.Client
}

// NewClient creates a new Nuxeo client with basic auth credentials.
// Requests use a finite timeout; a hanging repository call must fail the
// current item, not the process.
func NewClient(rawURL, username, password string) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Nuxeo URL: %w", err)
	}
	return &Client{
		Url:       rawURL,
		parsedURL: parsed,
		username:  username,
		password:  password,
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
// If the last segment contains a query string (e.g. "search?query=..."), it is
// split so JoinPath only receives the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "status 404")
}
