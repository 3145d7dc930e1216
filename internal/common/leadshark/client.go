// Package leadshark is a client for the LeadShark lead-sourcing API.
package leadshark

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	apphttp "agency-dashboard/internal/common/http"
)

var ErrMissingAPIKey = errors.New("leadshark api key is not configured")

const (
	DefaultBaseURL = "https://api.leadshark.io/v1"
	pageSize       = 100
	maxPages       = 50
)

type Lead struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName,omitempty"`
	LastName  string  `json:"lastName,omitempty"`
	Company   string  `json:"company"`
	Score     float64 `json:"score"`
}

type listLeadsResponse struct {
	Data    []Lead `json:"data"`
	HasMore bool   `json:"hasMore"`
}

type Client struct {
	baseURL    string
	httpClient *apphttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWith(baseURL, apphttp.NewClient(timeout))
}

func NewClientWith(baseURL string, hc *apphttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

// ListLeads pages through every lead visible to apiKey.
func (c *Client) ListLeads(ctx context.Context, apiKey string) ([]Lead, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var leads []Lead
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(pageSize))

		var resp listLeadsResponse
		err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/leads?%s", c.baseURL, q.Encode()), map[string]string{
			"Authorization": "Bearer " + apiKey,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("list leads page %d: %w", page, err)
		}

		leads = append(leads, resp.Data...)
		if !resp.HasMore || len(resp.Data) == 0 {
			break
		}
	}
	return leads, nil
}
