package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBodySize caps upstream payloads (16MB). Query replies can carry
// base64 chart images, so the limit is generous.
const maxResponseBodySize = 16 << 20

// Client talks to the analytics service over its fixed HTTP surface.
// Any transport failure or non-2xx status is reported as a plain error;
// callers treat all failures uniformly and fall back to bundled data.
type Client struct {
	baseURL      string
	http         *http.Client
	timeout      time.Duration // per data fetch
	queryTimeout time.Duration // per chat question; SQL generation is slow
}

// NewClient creates a client for the analytics service at baseURL.
// timeout bounds each data fetch; queryTimeout bounds chat questions.
// Timeouts are applied per request, not on the http.Client, because the
// two bounds differ by an order of magnitude.
func NewClient(baseURL string, timeout, queryTimeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{},
		timeout:      timeout,
		queryTimeout: queryTimeout,
	}
}

// FactoryKPIs fetches factory KPIs, optionally scoped to a factory/line.
func (c *Client) FactoryKPIs(ctx context.Context, factoryID, lineID string) (FactoryKPIs, error) {
	var out FactoryKPIs
	err := c.get(ctx, "/factory-kpis", params{"factory_id": factoryID, "line_id": lineID}, &out)
	return out, err
}

// FactoryHourlyProduction fetches hourly actual production versus demand.
func (c *Client) FactoryHourlyProduction(ctx context.Context, factoryID, lineID string) ([]HourlyProduction, error) {
	var out []HourlyProduction
	err := c.get(ctx, "/factory-hourly-production", params{"factory_id": factoryID, "line_id": lineID}, &out)
	return out, err
}

// FactoryDispatchPlanning fetches SKU-level production recommendations.
func (c *Client) FactoryDispatchPlanning(ctx context.Context, factoryID, lineID string) ([]DispatchPlan, error) {
	var out []DispatchPlan
	err := c.get(ctx, "/factory-dispatch-planning", params{"factory_id": factoryID, "line_id": lineID}, &out)
	return out, err
}

// DCKPIs fetches distribution center KPIs.
func (c *Client) DCKPIs(ctx context.Context, dcID string) (DCKPIs, error) {
	var out DCKPIs
	err := c.get(ctx, "/dc-kpis", params{"dc_id": dcID}, &out)
	return out, err
}

// DCDaysCover fetches days-of-cover rows, optionally scoped to a DC/SKU.
func (c *Client) DCDaysCover(ctx context.Context, dcID, skuID string) ([]DaysCover, error) {
	var out []DaysCover
	err := c.get(ctx, "/dc-days-cover", params{"dc_id": dcID, "sku_id": skuID}, &out)
	return out, err
}

// DCInventoryAge fetches the inventory age distribution for a DC.
func (c *Client) DCInventoryAge(ctx context.Context, dcID string) ([]InventoryAgeBucket, error) {
	var out []InventoryAgeBucket
	err := c.get(ctx, "/dc-inventory-age", params{"dc_id": dcID}, &out)
	return out, err
}

// StoreKPIs fetches store KPIs.
func (c *Client) StoreKPIs(ctx context.Context, storeID string) (StoreKPIs, error) {
	var out StoreKPIs
	err := c.get(ctx, "/store-kpis", params{"store_id": storeID}, &out)
	return out, err
}

// StoreShelfPerformance fetches SKU-level shelf performance for a store.
func (c *Client) StoreShelfPerformance(ctx context.Context, storeID string) ([]ShelfPerformance, error) {
	var out []ShelfPerformance
	err := c.get(ctx, "/store-shelf-performance", params{"store_id": storeID}, &out)
	return out, err
}

// StoreHourlySales fetches hourly sales versus forecast for a store.
func (c *Client) StoreHourlySales(ctx context.Context, storeID string) ([]HourlySales, error) {
	var out []HourlySales
	err := c.get(ctx, "/store-hourly-sales", params{"store_id": storeID}, &out)
	return out, err
}

// NodeHealth fetches the health summary for every supply chain node.
func (c *Client) NodeHealth(ctx context.Context) ([]NodeHealth, error) {
	var out []NodeHealth
	err := c.get(ctx, "/node-health", nil, &out)
	return out, err
}

// GlobalKPIs fetches the command center KPI aggregate.
func (c *Client) GlobalKPIs(ctx context.Context) (GlobalKPIs, error) {
	var out GlobalKPIs
	err := c.get(ctx, "/global-kpis", nil, &out)
	return out, err
}

// Health checks the analytics service health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/health", nil, &out)
	return out, err
}

// Query sends one natural language question and decodes the structured reply.
func (c *Client) Query(ctx context.Context, question string) (*QueryReply, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, fmt.Errorf("encode question: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("query: unexpected status %d", resp.StatusCode)
	}

	var reply QueryReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode query reply: %w", err)
	}
	return &reply, nil
}

// params maps query parameter names to values; empty values are omitted.
type params map[string]string

func (c *Client) get(ctx context.Context, path string, p params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(p) > 0 {
		values := url.Values{}
		for key, value := range p {
			if value != "" {
				values.Set(key, value)
			}
		}
		if encoded := values.Encode(); encoded != "" {
			u += "?" + encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
