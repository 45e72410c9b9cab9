// Package sheets loads the transaction and member snapshots from CSV exports.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/auctionledger/internal/logger"
)

// ErrSourceUnavailable is returned when either sheet cannot be fetched or
// parsed. The whole query fails; no partial snapshot is returned.
var ErrSourceUnavailable = errors.New("snapshot source unavailable")

// Snapshot holds header-less rows of both sheets from one load.
type Snapshot struct {
	Transactions [][]string
	Members      [][]string
	FetchedAt    time.Time
	Cached       bool
}

// ClientConfig holds retry and cache settings.
type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	CacheTTL       time.Duration
}

// Client fetches both CSV exports over HTTP.
type Client struct {
	transactionsURL string
	membersURL      string
	httpClient      *http.Client
	cache           Cache
	cfg             ClientConfig
}

// NewClient creates a client. A nil cache or zero CacheTTL disables caching.
func NewClient(transactionsURL, membersURL string, cache Cache, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		transactionsURL: transactionsURL,
		membersURL:      membersURL,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		cache:           cache,
		cfg:             cfg,
	}
}

// FetchSnapshot loads both sheets. Errors wrap ErrSourceUnavailable.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	txData, txCached, err := c.load(ctx, c.transactionsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: transactions: %w", ErrSourceUnavailable, err)
	}
	memberData, memberCached, err := c.load(ctx, c.membersURL)
	if err != nil {
		return nil, fmt.Errorf("%w: members: %w", ErrSourceUnavailable, err)
	}

	txRows, err := parseCSV(txData)
	if err != nil {
		return nil, fmt.Errorf("%w: transactions: %w", ErrSourceUnavailable, err)
	}
	memberRows, err := parseCSV(memberData)
	if err != nil {
		return nil, fmt.Errorf("%w: members: %w", ErrSourceUnavailable, err)
	}

	return &Snapshot{
		Transactions: txRows,
		Members:      memberRows,
		FetchedAt:    time.Now(),
		Cached:       txCached && memberCached,
	}, nil
}

func (c *Client) load(ctx context.Context, url string) ([]byte, bool, error) {
	useCache := c.cache != nil && c.cfg.CacheTTL > 0
	if useCache {
		data, ok, err := c.cache.Get(ctx, url)
		if err != nil {
			logger.Warn("Sheet cache read failed, fetching directly: %v", err)
		} else if ok {
			return data, true, nil
		}
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, false, err
	}

	if useCache {
		if err := c.cache.Set(ctx, url, data, c.cfg.CacheTTL); err != nil {
			logger.Warn("Sheet cache write failed: %v", err)
		}
	}
	return data, false, nil
}

// fetch performs the HTTP request with linear-backoff retry on transport
// errors and 5xx responses.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.cfg.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			logger.Debug("Sheet fetch attempt %d failed: %v", i+1, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		if err != nil {
			lastErr = fmt.Errorf("failed to read body: %w", err)
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// parseCSV reads an export and drops its header row. Rows may have any width.
func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv export is empty")
	}
	return records[1:], nil
}
