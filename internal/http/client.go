package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/synthlab/launcher/internal/errs"
)

// Client wraps HTTP operations against the metadata, asset, and identity
// services.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - JSON decoding with error classification
//   - File download with progress tracking
//
// Example usage:
//
//	client := NewClient()
//
//	var manifest meta.Manifest
//	err := client.GetJSON(ctx, manifestURL, &manifest)
//
//	// Download file with progress
//	err = client.DownloadFile(ctx, jarURL, "/path/to/client.jar", func(written, total int64) {
//	    percent := float64(written) / float64(total) * 100
//	    fmt.Printf("%.1f%%\n", percent)
//	})
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client for launcher traffic.
//
// The client is configured with:
//   - 60 second timeout
//   - "synthlab-launcher" User-Agent header
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "synthlab-launcher",
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns a KindNetwork error if the request fails or the response status
// is not 200 OK.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "get "+url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "get "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Newf(errs.KindNetwork, "get "+url, "HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "get "+url, err)
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the response body into v.
//
// Transport failures classify as KindNetwork, malformed payloads as
// KindParse.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errs.New(errs.KindParse, "decode "+url, err)
	}
	return nil
}

// GetFileSize returns the size of a file at the given URL via HEAD request.
//
// This is useful for pre-calculating total download size before the body
// is fetched.
func (c *Client) GetFileSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, errs.New(errs.KindNetwork, "head "+url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errs.New(errs.KindNetwork, "head "+url, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return 0, errs.Newf(errs.KindNetwork, "head "+url, "no Content-Length header")
	}

	return resp.ContentLength, nil
}

// DownloadFile downloads a file to the specified path with optional
// progress callback.
//
// The file is streamed directly to disk, avoiding loading the entire file
// into memory. Parent directories are created as needed.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes);
//     pass nil to disable progress tracking
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.KindNetwork, "download "+url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.New(errs.KindNetwork, "download "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.Newf(errs.KindNetwork, "download "+url, "HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return errs.New(errs.KindIO, "download "+url, err)
	}
	file, err := os.Create(destPath)
	if err != nil {
		return errs.New(errs.KindIO, "download "+url, err)
	}
	defer file.Close()

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return errs.New(errs.KindNetwork, "download "+url, err)
	}
	return nil
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// Use this for small files like asset objects and skin textures. For the
// client jar, use DownloadFile to stream directly to disk.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}

// PostForm sends a URL-encoded form and decodes the JSON response into v.
//
// Identity-provider endpoints return structured error payloads with
// non-2xx statuses; those are decoded into v as well so callers can
// inspect the provider's error code. Only transport-level failures and
// undecodable bodies produce an error.
func (c *Client) PostForm(ctx context.Context, url string, form map[string]string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(encodeForm(form)))
	if err != nil {
		return 0, errs.New(errs.KindNetwork, "post "+url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errs.New(errs.KindNetwork, "post "+url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errs.New(errs.KindNetwork, "post "+url, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return resp.StatusCode, errs.New(errs.KindParse, "decode "+url, err)
	}
	return resp.StatusCode, nil
}

// GetJSONAuthorized performs a GET with a bearer token and decodes the
// response into v.
//
// Non-200 statuses classify as KindAuth since these endpoints only reject
// requests whose token is missing, expired, or not entitled.
func (c *Client) GetJSONAuthorized(ctx context.Context, url, token string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.KindNetwork, "get "+url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.New(errs.KindNetwork, "get "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.Newf(errs.KindAuth, "get "+url, "HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.KindNetwork, "get "+url, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.New(errs.KindParse, "decode "+url, err)
	}
	return nil
}
