// Package media talks to the external media host that stores uploaded
// files. The subsystem only ever hands it a local file path and expects a
// hosted URL back.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Uploader stores a local file on the media host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Client is an HTTP Uploader posting multipart form data to a single
// upload endpoint.
type Client struct {
	uploadURL string
	apiKey    string
	http      *http.Client
}

// NewClient returns a Client. timeout bounds the whole upload request.
func NewClient(uploadURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		uploadURL: uploadURL,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type uploadResult struct {
	URL string `json:"url"`
}

// Upload sends the file as a multipart "file" part. Non-2xx responses and
// responses without a URL are failures; the caller decides the HTTP status.
func (c *Client) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(localPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("media upload: status %d: %s", resp.StatusCode, body)
	}

	var out uploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("media upload: decode response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("media upload: empty url in response")
	}
	return out.URL, nil
}
