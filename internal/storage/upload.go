package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var (
	ErrMissingImage    = errors.New("image is required")
	ErrMissingCategory = errors.New("category is required")
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadRequest is one labeled image to store
type UploadRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	Category    string
}

// UploadResult is the service's answer to a successful upload
type UploadResult struct {
	StatusCode int
	Message    string
}

// Upload posts the image as multipart form with the fields "image" and "category".
// There is no retry.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Data) == 0 {
		return nil, ErrMissingImage
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, ErrMissingCategory
	}

	body, contentType, err := encodeUploadForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer closeBody(resp)

	slog.Info("upload finished",
		"filename", req.Filename,
		"category", req.Category,
		"size_bytes", len(req.Data),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	result := &UploadResult{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		var parsed errorBody
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		result.Message = strings.TrimSpace(parsed.Message)
	}

	if c.cache != nil {
		if err := c.cache.Clear(ctx); err != nil {
			slog.Warn("failed to clear listing cache after upload", "error", err)
		}
	}

	return result, nil
}

func encodeUploadForm(req UploadRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = "image"
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}
	if err := writer.WriteField("category", req.Category); err != nil {
		return nil, "", fmt.Errorf("failed to write category field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
