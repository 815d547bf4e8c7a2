package bridgesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to one bridge instance.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a bridge client with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Provision creates or refreshes the account of the user behind accessToken
// and returns new credentials. Any earlier secret stops working.
func (c *Client) Provision(ctx context.Context, accessToken string, req ProvisionRequest) (*ProvisionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/provision", accessToken, bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, err
	}

	var out ProvisionResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIdentity returns the caller's account without credentials.
func (c *Client) GetIdentity(ctx context.Context, accessToken string) (*IdentityResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/identity", accessToken, nil, nil)
	if err != nil {
		return nil, err
	}

	var out IdentityResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deprovision deletes the caller's account.
func (c *Client) Deprovision(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/identity", accessToken, nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// CheckBouncerLogin performs the bouncer's auth callback. It reports true on
// 200 and false on 403; other statuses are errors.
func (c *Client) CheckBouncerLogin(ctx context.Context, username, secret string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/v1/bouncer/auth"), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(username, secret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusForbidden:
		return false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, parseErrorResponse(resp, body)
	}
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", "", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks if the service is ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", "", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
