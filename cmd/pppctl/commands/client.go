package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tokarak/gopppd/internal/controlapi"
)

// errRequestFailed wraps a non-2xx response from the control API, with
// the body's decoded error message attached where available.
var errRequestFailed = errors.New("control API request failed")

// apiClient is a thin JSON client for internal/controlapi's HTTP
// surface, replacing the ConnectRPC-generated client a protobuf
// control plane would have used.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, hc *http.Client) *apiClient {
	return &apiClient{baseURL: baseURL, http: hc}
}

func (c *apiClient) listSessions() ([]controlapi.SessionView, error) {
	var views []controlapi.SessionView
	if err := c.do(http.MethodGet, "/sessions", nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *apiClient) getSession(id string) (controlapi.SessionView, error) {
	var view controlapi.SessionView
	err := c.do(http.MethodGet, "/sessions/"+id, nil, &view)
	return view, err
}

func (c *apiClient) terminateSession(id string, req controlapi.TerminateRequest) error {
	return c.do(http.MethodPost, "/sessions/"+id+"/terminate", req, nil)
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %w (status %d): %s", method, path, errRequestFailed, resp.StatusCode, decodeErrorBody(resp.Body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func decodeErrorBody(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Error == "" {
		return "unknown error"
	}
	return body.Error
}
