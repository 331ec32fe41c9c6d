package square

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	ProductionURL = "https://connect.squareup.com"
	SandboxURL    = "https://connect.squareupsandbox.com"

	DefaultAPIVersion = "2025-01-23"
	pageSize          = 100
)

type Client struct {
	baseURL     string
	accessToken string
	apiVersion  string
	http        *http.Client
}

func NewClient(accessToken, baseURL, apiVersion string, httpClient *http.Client) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		http:        httpClient,
	}
}

// ListCustomers fetches one page of customers, oldest first. An empty cursor
// requests the first page.
func (c *Client) ListCustomers(ctx context.Context, cursor string) (*ListCustomersResponse, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(pageSize))
	q.Set("sort_field", "CREATED_AT")
	q.Set("sort_order", "ASC")
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/customers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("square request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read square response: %w", err)
	}

	var out ListCustomersResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = json.Unmarshal(body, &out)
		return nil, &APIError{StatusCode: resp.StatusCode, Errors: out.Errors}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode square customers: %w", err)
	}
	return &out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Square-Version", c.apiVersion)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "LigueReviews/1.0")
}
