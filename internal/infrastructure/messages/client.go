package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
	"github.com/kirillkom/messages-qa-service/internal/infrastructure/resilience"
)

const defaultPageSize = 100

// Client fetches the full message corpus from the external messages API and
// owns the process-wide corpus cache. It is the only component allowed to
// mutate that cache.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	executor   *resilience.Executor
	cache      *corpusCache
}

type Config struct {
	BaseURL      string
	PageSize     int
	Timeout      time.Duration
	CacheTTL     time.Duration
	StaleCeiling time.Duration
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
		cache:      newCorpusCache(cfg.CacheTTL, cfg.StaleCeiling, time.Now),
	}
}

// WithClock replaces the corpus cache clock. Test hook.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.cache.now = now
	return c
}

// FetchAllMessages returns the corpus, preferring a fresh cache snapshot over
// the network. When the live fetch fails and a snapshot younger than the
// stale ceiling exists, that snapshot is served with the degraded flag set;
// otherwise the failure surfaces as ErrSourceUnavailable.
func (c *Client) FetchAllMessages(ctx context.Context) ([]domain.Message, bool, error) {
	if snapshot, state := c.cache.snapshot(); state == corpusFresh {
		return snapshot, false, nil
	}

	var fetched []domain.Message
	err := c.executor.Execute(ctx, "messages_fetch", func(ctx context.Context) error {
		var fetchErr error
		fetched, fetchErr = c.fetchAllPages(ctx)
		return fetchErr
	}, classifyFetchError)
	if err == nil {
		c.cache.replace(fetched)
		return fetched, false, nil
	}

	if snapshot, state := c.cache.snapshot(); state == corpusStaleUsable {
		return snapshot, true, nil
	}
	return nil, false, domain.WrapError(domain.ErrSourceUnavailable, "fetch messages", err)
}

type pageResponse struct {
	Total int              `json:"total"`
	Items []domain.Message `json:"items"`
}

// fetchAllPages walks skip/limit pagination until the reported total is
// reached or the API returns a short page.
func (c *Client) fetchAllPages(ctx context.Context) ([]domain.Message, error) {
	var all []domain.Message
	skip := 0
	total := -1

	for {
		page, err := c.fetchPage(ctx, skip)
		if err != nil {
			return nil, err
		}
		if total < 0 {
			total = page.Total
		}
		all = append(all, page.Items...)

		if total >= 0 && len(all) >= total {
			break
		}
		if len(page.Items) < c.pageSize {
			break
		}
		skip += c.pageSize
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, skip int) (*pageResponse, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create messages request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messages request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}
	return &page, nil
}
