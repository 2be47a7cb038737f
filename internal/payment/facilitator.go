package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Facilitator verifies and settles payment credentials. Implemented over HTTP
// by Client; handler tests substitute a double.
type Facilitator interface {
	Verify(ctx context.Context, credential *Credential, requirement Requirement) (*VerifyResult, error)
	Settle(ctx context.Context, credential *Credential, requirement Requirement) (*SettleResult, error)
}

type ClientOptions struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zerolog.Logger
}

// Client talks to the external x402 facilitator. A returned error means the
// facilitator was unreachable or unintelligible; a rejected payment comes back
// as a result value.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

func NewClient(opts ClientOptions) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIToken),
		logger:     logger,
	}
}

func (c *Client) Verify(ctx context.Context, credential *Credential, requirement Requirement) (*VerifyResult, error) {
	var out struct {
		VerifyResult
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	status, err := c.post(ctx, "/verify", credential, requirement, &out)
	if err != nil {
		return nil, err
	}
	result := out.VerifyResult
	if status >= http.StatusBadRequest && result.InvalidReason == "" {
		result.IsValid = false
		result.InvalidReason = firstNonEmpty(out.Error, out.Message, fmt.Sprintf("payment verification failed (%d)", status))
	}
	c.logger.Debug().Int("status", status).Bool("is_valid", result.IsValid).Msg("facilitator verify")
	return &result, nil
}

func (c *Client) Settle(ctx context.Context, credential *Credential, requirement Requirement) (*SettleResult, error) {
	var out struct {
		SettleResult
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	status, err := c.post(ctx, "/settle", credential, requirement, &out)
	if err != nil {
		return nil, err
	}
	result := out.SettleResult
	if status >= http.StatusBadRequest && result.ErrorReason == "" {
		result.Success = false
		result.ErrorReason = firstNonEmpty(out.Error, out.Message, fmt.Sprintf("payment settlement failed (%d)", status))
	}
	c.logger.Debug().Int("status", status).Bool("success", result.Success).Msg("facilitator settle")
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, credential *Credential, requirement Requirement, out any) (int, error) {
	if c.baseURL == "" {
		return 0, errors.New("facilitator base url not configured")
	}
	body, err := json.Marshal(facilitatorRequest{
		X402Version: X402Version,
		Payload:     credential.Payload,
		Requirement: requirement,
	})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("facilitator unreachable: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("facilitator response: %w", err)
	}
	return resp.StatusCode, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ Facilitator = (*Client)(nil)
