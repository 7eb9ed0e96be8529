package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"sellersync/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	// Remote feed endpoints can be very slow; keep the timeout generous.
	defaultTimeout         = 5 * time.Minute
	defaultDownloadTimeout = 60 * time.Second
)

// Fetcher pulls JSON documents and logo files from the remote seller
// sources. Failed requests are retried with doubling backoff; a request
// that exhausts its attempts yields no data rather than an error, so a
// bad endpoint never aborts a whole state job.
type Fetcher struct {
	client         *http.Client
	downloadClient *http.Client
	limiter        *rate.Limiter
	logger         *logger.Logger
	attempts       int
	backoff        time.Duration
}

func New(log *logger.Logger) *Fetcher {
	return &Fetcher{
		client:         &http.Client{Timeout: defaultTimeout},
		downloadClient: &http.Client{Timeout: defaultDownloadTimeout},
		limiter:        rate.NewLimiter(rate.Limit(5), 10),
		logger:         log,
		attempts:       defaultAttempts,
		backoff:        defaultBackoff,
	}
}

// WithBackoff overrides the initial retry delay. Tests use a near-zero
// value to keep the retry path fast.
func (f *Fetcher) WithBackoff(d time.Duration) *Fetcher {
	f.backoff = d
	return f
}

// FetchJSON downloads and decodes JSON from a URL. Transport errors,
// HTTP status >= 400, and malformed bodies are all retried up to three
// attempts total. When the decoded body is an object carrying a "data"
// list, the list is unwrapped. Returns nil after exhausting attempts.
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string) interface{} {
	delay := f.backoff

	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(delay)
			delay *= 2
		}

		data, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			f.logger.Debug("fetch attempt %d/%d failed for %s: %v", attempt, f.attempts, rawURL, err)
			if attempt == f.attempts {
				f.logger.Error("fetch exhausted retries for %s: %v", rawURL, err)
				return nil
			}
			continue
		}

		if wrapped, ok := data.(map[string]interface{}); ok {
			if list, ok := wrapped["data"].([]interface{}); ok {
				return list
			}
		}

		return data
	}

	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (interface{}, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var data interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return data, nil
}

// StateSellers fetches the seller listing for one state. The state code
// is appended to the configured base URL. Always returns a slice,
// empty when the source yields nothing usable.
func (f *Fetcher) StateSellers(ctx context.Context, baseURL, stateCode string) []map[string]interface{} {
	data := f.FetchJSON(ctx, baseURL+url.QueryEscape(stateCode))

	list, ok := data.([]interface{})
	if !ok {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// SingleSeller fetches the detail record for one seller slug. The
// detail endpoint sometimes returns a one-element list instead of a
// bare object; both shapes are handled.
func (f *Fetcher) SingleSeller(ctx context.Context, baseURL, slug string) map[string]interface{} {
	data := f.FetchJSON(ctx, baseURL+url.QueryEscape(slug))

	switch v := data.(type) {
	case map[string]interface{}:
		return v
	case []interface{}:
		if len(v) > 0 {
			if row, ok := v[0].(map[string]interface{}); ok {
				return row
			}
		}
	}

	return nil
}

// Download fetches a binary asset into dir and returns the stored path
// and the content checksum. Unlike FetchJSON this reports errors: the
// reconciler decides whether a failed logo matters.
func (f *Fetcher) Download(ctx context.Context, rawURL, dir string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.downloadClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("download read failed: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := path.Base(rawURL)
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" && parsed.Path != "/" {
		name = path.Base(parsed.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "logo.png"
	}

	dest := filepath.Join(dir, uuid.New().String()[:8]+"-"+name)
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write asset: %w", err)
	}

	sum := sha256.Sum256(body)
	return dest, hex.EncodeToString(sum[:]), nil
}
