// Package upload sends listing images to a Cloudinary-style asset host.
package upload

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
	"path/filepath"
	"strings"
	"time"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

// ErrUnavailable is returned when the asset host is not configured.
var ErrUnavailable = errors.New("image upload unavailable")

// ErrNotImage is returned for files that are not images.
var ErrNotImage = errors.New("file is not an image")

// Uploader posts images to an unsigned upload preset.
type Uploader struct {
	httpClient *http.Client
	preset     string
	url        string
}

// New creates an Uploader. A full endpoint URL overrides the one built
// from the cloud name.
func New(cloud, preset, endpoint string) (*Uploader, error) {
	if preset == "" || (cloud == "" && endpoint == "") {
		return nil, ErrUnavailable
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloud)
	}
	return &Uploader{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		preset:     preset,
		url:        endpoint,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the image and returns its hosted URL.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return "", ErrNotImage
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("upload_preset", u.preset); err != nil {
		return "", fmt.Errorf("writing preset: %w", err)
	}
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("closing upload response", "error", closeErr)
		}
	}()

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error.Message != "" {
			return "", fmt.Errorf("upload failed: %s", result.Error.Message)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}

	slog.Info("image uploaded", "url", result.SecureURL, "bytes", len(data))
	return result.SecureURL, nil
}
