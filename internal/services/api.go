// Raw access to the SoundCloud API for debugging
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// APIService performs raw authenticated requests against the SoundCloud API
// and returns the response without interpreting it.
type APIService struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// NewAPIService creates a raw API service. An empty baseURL targets the public
// API host and a nil client falls back to [http.DefaultClient].
func NewAPIService(baseURL, clientID string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path (query string allowed) and
// returns the raw response. Non-2xx statuses are not errors.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	fullURL := a.baseURL + "/" + strings.TrimLeft(path, "/")
	if a.clientID != "" {
		u, err := withParams(fullURL, url.Values{"client_id": {a.clientID}})
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		fullURL = u
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
