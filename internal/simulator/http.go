package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitPunches submits punches concurrently using worker pools
func submitPunches(ctx context.Context, config *Config, punches []Punch, stats *Stats) error {
	log.Printf("📤 Submitting %d punches with %d workers...", len(punches), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/events"

	// Counters for statistics
	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	punchChan := make(chan Punch, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for punch := range punchChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSinglePunch(ctx, client, url, punch)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Submission progress: %d/%d (success: %d, duplicate: %d, failed: %d)",
								total, len(punches), succ, dup, fail)
						} else {
							log.Printf("\r📤 Punches: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
								total, len(punches), succ, dup, fail)
						}
					}
				}
			}
		}()
	}

	// Feed punches to workers
	go func() {
		defer close(punchChan)
		for _, punch := range punches {
			select {
			case <-ctx.Done():
				return
			case punchChan <- punch:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		log.Println() // New line after progress indicator
	}

	// Update stats
	stats.PunchesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.PunchesSuccessful = int(atomic.LoadInt64(&successful))
	stats.PunchesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.PunchesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Punch submission completed:
   Submitted: %d
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.PunchesSubmitted, stats.PunchesSuccessful, stats.PunchesDuplicate, stats.PunchesFailed)

	return nil
}

// submitSinglePunch posts one punch and classifies the outcome.
func submitSinglePunch(ctx context.Context, client *HTTPClient, url string, punch Punch) string {
	resp, err := client.Post(ctx, url, punch)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	if resp.StatusCode != StatusOK && resp.StatusCode != StatusAccepted {
		return "failed"
	}

	var ack AckResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return "failed"
	}
	if ack.Duplicate {
		return "duplicate"
	}
	return "success"
}

// syncBatch posts the full punch set to /sync with the configured merge
// strategy and returns the batch summary.
func syncBatch(ctx context.Context, config *Config, client *HTTPClient, punches []Punch) (SummaryResponse, error) {
	request := struct {
		Events   []Punch `json:"events"`
		Strategy string  `json:"strategy"`
	}{
		Events:   punches,
		Strategy: config.Strategy,
	}

	resp, err := client.Post(ctx, config.BaseURL+"/sync", request)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("sync request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("failed to read sync response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return SummaryResponse{}, fmt.Errorf("sync failed with status %d: %s", resp.StatusCode, string(body))
	}

	var summary SummaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return SummaryResponse{}, fmt.Errorf("failed to decode sync summary: %w", err)
	}
	return summary, nil
}

// fetchRecord retrieves one scored day record from the service.
func fetchRecord(ctx context.Context, client *HTTPClient, baseURL, employeeID, day string) (RecordResponse, error) {
	url := baseURL + "/records/" + employeeID + "/" + day

	resp, err := client.Get(ctx, url)
	if err != nil {
		return RecordResponse{}, fmt.Errorf("record request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return RecordResponse{}, fmt.Errorf("failed to read record response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return RecordResponse{}, fmt.Errorf("record fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var record RecordResponse
	if err := json.Unmarshal(body, &record); err != nil {
		return RecordResponse{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}
