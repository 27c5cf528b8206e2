// Package storefront fetches order and supplier data from the BuyNest
// storefront API.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buynest/backend/internal/domain/analysis"
	"github.com/buynest/backend/internal/domain/shared"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 50 * 1024 * 1024 // 50MB max response

	ordersPath    = "/api/orders"
	suppliersPath = "/api/suppliers"
)

// Config holds the storefront API connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is an HTTP client for the storefront API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a storefront client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("storefront base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid storefront base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FetchOrders retrieves all orders from the storefront.
func (c *Client) FetchOrders(ctx context.Context) ([]analysis.RawRecord, error) {
	return c.fetchRecords(ctx, ordersPath)
}

// FetchSuppliers retrieves all supplier procurement batches.
func (c *Client) FetchSuppliers(ctx context.Context) ([]analysis.RawRecord, error) {
	return c.fetchRecords(ctx, suppliersPath)
}

func (c *Client) fetchRecords(ctx context.Context, path string) ([]analysis.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrUpstream.Code,
			fmt.Sprintf("storefront request to %s failed: %v", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrUpstream.Code,
			fmt.Sprintf("read storefront response from %s: %v", path, err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, shared.NewDomainError(shared.ErrUpstream.Code,
			fmt.Sprintf("storefront returned status %d for %s", resp.StatusCode, path))
	}

	return decodeRecords(body, path)
}

// decodeRecords accepts either a bare JSON array or an object wrapping
// the array under a conventional key.
func decodeRecords(body []byte, path string) ([]analysis.RawRecord, error) {
	var records []analysis.RawRecord
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, shared.NewDomainError(shared.ErrUpstream.Code,
			fmt.Sprintf("storefront response from %s is not valid JSON", path))
	}

	for _, key := range []string{"data", "orders", "suppliers", "items", "results"} {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, nil
		}
	}

	return nil, shared.NewDomainError(shared.ErrUpstream.Code,
		fmt.Sprintf("storefront response from %s has no record array", path))
}
