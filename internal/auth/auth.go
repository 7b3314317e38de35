// Package auth links the pad to an account: it exchanges an OAuth
// authorization code for a bearer token and fetches the derived keys.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrNoCode is returned when a redirect URL carries no code parameter.
	ErrNoCode = errors.New("redirect url has no code")

	// ErrUnexpectedStatus is returned for any non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Token is the token endpoint response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	TokenURL     string
	KeysURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to the OAuth token and keys endpoints.
type Client struct {
	client *resty.Client
	cfg    ClientConfig
}

// NewClient creates a Client. A zero timeout defaults to 15s.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		client: resty.New().SetTimeout(cfg.Timeout),
		cfg:    cfg,
	}
}

// ExtractCode returns the code parameter of an OAuth redirect URL. The
// parameters may follow either '?' or '#'.
func ExtractCode(redirectURL string) (string, error) {
	i := strings.IndexAny(redirectURL, "?#")
	if i < 0 {
		return "", ErrNoCode
	}

	raw := redirectURL[i+1:]
	if j := strings.IndexByte(raw, '#'); j >= 0 {
		raw = raw[:j]
	}

	params, err := url.ParseQuery(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect url: %w", err)
	}

	code := params.Get("code")
	if code == "" {
		return "", ErrNoCode
	}
	return code, nil
}

// ExchangeCode trades an authorization code for a bearer token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Token, error) {
	var token Token
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"code":          code,
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
		}).
		SetResult(&token).
		Post(c.cfg.TokenURL)
	if err != nil {
		return Token{}, fmt.Errorf("token request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return Token{}, err
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("token response has no access_token")
	}
	return token, nil
}

// FetchKeys returns the raw keys document for the token.
func (c *Client) FetchKeys(ctx context.Context, token Token) (json.RawMessage, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		Post(c.cfg.KeysURL)
	if err != nil {
		return nil, fmt.Errorf("keys request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("keys response is not json")
	}
	return json.RawMessage(body), nil
}

func checkStatus(resp *resty.Response) error {
	if resp.StatusCode() == http.StatusOK {
		return nil
	}
	return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode(), strings.TrimSpace(resp.String()))
}
