package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// ErrServerNotRunning indicates the server refused the connection.
var ErrServerNotRunning = errors.New("server is not running (connection refused)")

// defaultHTTPClient is the package-level HTTP client used by all commands.
// Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}

// apiClient provides HTTP access to a running filedex server.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// clientFromFlags builds a client from the persistent --server / --api-key flags.
func clientFromFlags(cmd *cobra.Command) *apiClient {
	server, _ := cmd.Flags().GetString("server")
	apiKey, _ := cmd.Flags().GetString("api-key")
	return &apiClient{
		baseURL: server,
		apiKey:  apiKey,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *apiClient) getJSON(path string, dest any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.doJSON(req, http.StatusOK, dest)
}

// postJSON performs a POST with a JSON body and decodes the response into dest.
func (c *apiClient) postJSON(path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, http.StatusOK, dest)
}

// uploadFiles posts local files as a multipart form. field is the part name
// ("file" for single uploads, "files" for batch).
func (c *apiClient) uploadFiles(path, field string, paths []string, metadata string, wantStatus int, dest any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, p := range paths {
		data, err := readLocalFile(p)
		if err != nil {
			return err
		}
		part, err := mw.CreateFormFile(field, filepath.Base(p))
		if err != nil {
			return fmt.Errorf("build form: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return fmt.Errorf("build form: %w", err)
		}
	}
	if metadata != "" {
		if err := mw.WriteField("metadata", metadata); err != nil {
			return fmt.Errorf("build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.doJSON(req, wantStatus, dest)
}

// delete performs a DELETE request expecting 204.
func (c *apiClient) delete(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

// download performs a GET request and returns the raw body and content type.
func (c *apiClient) download(path string) ([]byte, string, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *apiClient) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return nil, ErrServerNotRunning
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *apiClient) doJSON(req *http.Request, wantStatus int, dest any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// statusError turns a non-success response into an error, preferring the
// server's JSON error message over the raw body.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("server returned status %d (%s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
