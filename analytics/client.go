// Package analytics talks to the external collection-analytics service.
// The service is optional: callers must treat every failure here as
// non-fatal and fall back to locally computed figures.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metrics are the efficiency figures the dashboard shows when live data is
// available.
type Metrics struct {
	CollectionEfficiency decimal.Decimal `json:"collection_efficiency"`
	AvgCollectionDays    decimal.Decimal `json:"avg_collection_days"`
}

// Provider is implemented by the HTTP client below and by test fakes.
type Provider interface {
	PartyMetrics(ctx context.Context, businessId string, partyId int) (*Metrics, error)
}

type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	tokens    chan struct{}
}

// NewClientFromEnv returns nil (not an error) when the service is not
// configured; the summary then always reports fallback data.
func NewClientFromEnv() *Client {
	apiKey := strings.TrimSpace(os.Getenv("ANALYTICS_API_KEY"))
	if apiKey == "" {
		return nil
	}
	c, err := NewClient(apiKey)
	if err != nil {
		return nil
	}
	return c
}

func NewClient(apiKey string) (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("ANALYTICS_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://analytics.b2bbillings.com"
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("ANALYTICS_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("analytics api key is empty")
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("ANALYTICS_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	// Seed one token so the first call never waits out a full interval;
	// the ticker tops the bucket back up afterwards.
	tokens := make(chan struct{}, 1)
	tokens <- struct{}{}
	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			select {
			case tokens <- struct{}{}:
			default:
			}
		}
	}()

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		tokens:    tokens,
	}, nil
}

type metricsResponse struct {
	Success bool     `json:"success"`
	Data    *Metrics `json:"data"`
	Message string   `json:"message"`
}

func (c *Client) PartyMetrics(ctx context.Context, businessId string, partyId int) (*Metrics, error) {
	select {
	case <-c.tokens:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	params := url.Values{}
	params.Set("businessId", businessId)
	endpoint := c.baseURL + "/v1/parties/" + strconv.Itoa(partyId) + "/collection-metrics?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analytics api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed metricsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if !parsed.Success || parsed.Data == nil {
		msg := parsed.Message
		if msg == "" {
			msg = "no metrics available"
		}
		return nil, errors.New(msg)
	}
	return parsed.Data, nil
}
