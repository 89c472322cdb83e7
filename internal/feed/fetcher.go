package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"stockfeed/internal/observability"
)

var ErrUnexpectedStatus = errors.New("feed: unexpected status")

const defaultTimeout = 60 * time.Second

// Fetcher downloads the remote stock feed.
type Fetcher struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

func NewFetcher(url string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Logger: observability.OrNop(logger),
	}
}

// Download streams the feed body into path and returns the number of bytes
// written. The bytes go to a temporary file next to path which is synced and
// renamed over path only once the body has been read completely, so a failed
// download leaves the previous snapshot untouched.
func (f *Fetcher) Download(ctx context.Context, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", f.URL, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "text/csv, */*")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w %d for %s", ErrUnexpectedStatus, resp.StatusCode, f.URL)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	body := &countingReader{r: resp.Body}
	if err := atomic.WriteFile(path, body); err != nil {
		return body.n, fmt.Errorf("failed to save %s: %w", path, err)
	}

	observability.FeedBytesTotal.Add(float64(body.n))
	f.Logger.Info("feed downloaded",
		zap.String("url", f.URL),
		zap.String("path", path),
		zap.Int64("bytes", body.n),
	)
	return body.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
