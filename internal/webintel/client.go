// Package webintel talks to the external web intelligence service used to
// enrich agent training with fresh market context.
package webintel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client is the HTTP client for the web intelligence service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// Search runs a web search, bounded to maxResults hits.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(maxResults))

	body, err := c.get(ctx, "/v1/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var result struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return result.Results, nil
}

// FetchPage retrieves the readable text content of one page.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	q := url.Values{}
	q.Set("url", pageURL)

	body, err := c.get(ctx, "/v1/fetch?"+q.Encode())
	if err != nil {
		return "", err
	}
	var result struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode page content: %w", err)
	}
	return result.Content, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webintel request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webintel %s: status %d: %s", path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
