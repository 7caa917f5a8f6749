package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/hvila/tablero/internal/logger"
)

// LogoUpload names one file of a multi-file logo upload.
type LogoUpload struct {
	Name   string
	Reader io.Reader
}

// UploadResult reports the outcome of one file of a multi-file upload.
type UploadResult struct {
	Name string
	URL  string
	Err  error
}

// UploadLogo uploads a single logo file and returns its public URL.
func (c *Client) UploadLogo(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.session.ServerURL+"/api/v1/logos", pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("uploading %s: server error (%d): %s", name, resp.StatusCode, string(respBody))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// UploadLogos uploads several files, committing the succeeding subset and
// reporting each failure by name. A failed file never rolls back the
// files that already made it.
func (c *Client) UploadLogos(ctx context.Context, files []LogoUpload) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		url, err := c.UploadLogo(ctx, f.Name, f.Reader)
		if err != nil {
			logger.Warn("Logo upload failed", logger.F("name", f.Name), logger.F("error", err))
		}
		results = append(results, UploadResult{Name: f.Name, URL: url, Err: err})
	}
	return results
}

// RemoveLogo deletes a previously uploaded logo by name.
func (c *Client) RemoveLogo(ctx context.Context, name string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/v1/logos/"+name, nil, nil); err != nil {
		return fmt.Errorf("removing logo %s: %w", name, err)
	}
	return nil
}
