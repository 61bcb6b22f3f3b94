package nuxeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// operationRequest is the Automation API request envelope.
type operationRequest struct {
	Params  map[string]string `json:"params"`
	Input   string            `json:"input"`
	Context map[string]string `json:"context"`
}

// doGetJSON performs a GET request and unmarshals the JSON response into the
// result type. The endpoint is the path after the server base URL
// (e.g. "api/v1/id/1234").
func doGetJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	// Ask for the full property set, the default response omits schemas.
	req.Header.Set("properties", "*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}

// doOperation invokes a Nuxeo Automation operation and unmarshals the JSON
// response. Requests carry a short transaction timeout and ask for the full
// property set on returned documents.
func doOperation[T any](ctx context.Context, c *Client, operation string, input string, params map[string]string) (*T, error) {
	if params == nil {
		params = map[string]string{}
	}
	jsonBody, err := json.Marshal(operationRequest{
		Params:  params,
		Input:   input,
		Context: map[string]string{},
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request body: %w", err)
	}

	url := c.resolveURL("site", "automation", operation)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Nuxeo-Transaction-Timeout", "3")
	req.Header.Set("X-NXproperties", "*")
	req.Header.Set("X-NXRepository", "default")
	req.Header.Set("X-NXVoidOperation", "false")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("operation %s failed with status %d: %s", operation, resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}
