package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caramelo/internal/models"
)

const maxResponseSize = 256 << 20 // 256 MB

// HTTPSource polls the capture backend's JSON API.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source for the backend at baseURL
// (e.g. "http://localhost:8080").
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return "http" }

// Fetch returns the backend's full packet list from GET /packets. Records
// that fail to decode are skipped.
func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Packet, error) {
	body, err := s.get(ctx, "/packets")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var batch models.Batch
	if err := json.NewDecoder(io.LimitReader(body, maxResponseSize)).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode packets: %w", err)
	}
	return decodeRecords(batch.Packets), nil
}

// StartCapture asks the backend to start capturing.
func (s *HTTPSource) StartCapture(ctx context.Context) (string, error) {
	return s.control(ctx, "/start_capture")
}

// StopCapture asks the backend to stop capturing.
func (s *HTTPSource) StopCapture(ctx context.Context) (string, error) {
	return s.control(ctx, "/stop_capture")
}

func (s *HTTPSource) control(ctx context.Context, path string) (string, error) {
	body, err := s.get(ctx, path)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode %s response: %w", path, err)
	}
	return resp.Status, nil
}

func (s *HTTPSource) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	return resp.Body, nil
}
