// Package remediation talks to the external code-remediation provider that
// detects and fixes platform code defects.
package remediation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Defect is one issue reported by the provider.
type Defect struct {
	Location string `json:"location"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// FixReport summarizes one fix run.
type FixReport struct {
	Total  int `json:"total"`
	Fixed  int `json:"fixed"`
	Failed int `json:"failed"`
}

// Client is the HTTP client for the remediation provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a remediation client. Call timeouts come from the
// caller's context; the audit cycle wraps every call with its external-call
// timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Detect asks the provider for the current defect list.
func (c *Client) Detect(ctx context.Context) ([]Defect, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/defects", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Defects []Defect `json:"defects"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode defects: %w", err)
	}
	return result.Defects, nil
}

// Fix asks the provider to fix the given defects and returns the outcome.
func (c *Client) Fix(ctx context.Context, defects []Defect) (FixReport, error) {
	payload := struct {
		Defects []Defect `json:"defects"`
	}{Defects: defects}

	body, err := c.do(ctx, http.MethodPost, "/v1/fix", payload)
	if err != nil {
		return FixReport{}, err
	}
	var report FixReport
	if err := json.Unmarshal(body, &report); err != nil {
		return FixReport{}, fmt.Errorf("decode fix report: %w", err)
	}
	return report, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remediation request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remediation %s: status %d: %s", path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
