package tourseed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/panotour/pkg/logger"
)

// ErrStatus is returned for any response outside 2xx.
var ErrStatus = errors.New("unexpected status")

// HTTPClient wraps http.Client with the service's base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, header http.Header, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("%w %d from %s %s: %s", ErrStatus, resp.StatusCode, method, path, bytes.TrimSpace(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) (int, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

// SendJSON performs a request with a JSON body.
func (c *HTTPClient) SendJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, http.Header{"Content-Type": {"application/json"}}, out)
}

// Upload posts raw image bytes.
func (c *HTTPClient) Upload(ctx context.Context, name string, data []byte, out any) (int, error) {
	return c.do(ctx, http.MethodPost, "/api/panoramas", bytes.NewReader(data), http.Header{
		"Content-Type": {"image/png"},
		"X-Filename":   {name},
	}, out)
}

// uploadPanoramas uploads panoramas concurrently and waits for each to decode.
func uploadPanoramas(ctx context.Context, config *Config, client *HTTPClient, panoramas []Panorama, stats *Stats) error {
	logger.Get().Info(ctx, "uploading panoramas",
		logger.Int("count", len(panoramas)),
		logger.Int("workers", config.Workers))

	var accepted, duplicate, ready, failed int64

	jobs := make(chan int, config.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := &panoramas[i]
				if err := uploadOne(ctx, client, p); err != nil {
					logger.Get().Warn(ctx, "upload failed", logger.String("name", p.Name), logger.Error(err))
					atomic.AddInt64(&failed, 1)
					continue
				}
				if p.UploadID != "" && p.Status != "duplicate" {
					atomic.AddInt64(&accepted, 1)
				}
				switch p.Status {
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				case statusReady:
					atomic.AddInt64(&ready, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose {
					logger.Get().Info(ctx, "uploaded",
						logger.String("name", p.Name),
						logger.String("panorama", p.PanoramaID),
						logger.String("status", p.Status))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range panoramas {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Accepted = int(atomic.LoadInt64(&accepted))
	stats.Duplicate = int(atomic.LoadInt64(&duplicate))
	stats.Ready = int(atomic.LoadInt64(&ready))
	stats.Failed = int(atomic.LoadInt64(&failed))
	return ctx.Err()
}

func uploadOne(ctx context.Context, client *HTTPClient, p *Panorama) error {
	var ack uploadAck
	status, err := client.Upload(ctx, p.Name, p.Data, &ack)
	if err != nil {
		return err
	}
	p.UploadID = ack.UploadID
	if status == http.StatusOK && ack.Duplicate {
		p.Status = "duplicate"
		p.PanoramaID = ack.PanoramaID
		return nil
	}

	var done uploadAck
	if _, err := client.Get(ctx, "/api/uploads/"+ack.UploadID+"?wait=1", &done); err != nil {
		return err
	}
	p.Status = done.Status
	p.PanoramaID = done.PanoramaID
	if done.Status == statusFailed {
		return fmt.Errorf("decode %s: %s", p.Name, done.Error)
	}
	return nil
}
