package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Token is the result of a token exchange with the accounts service.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenError is the error shape the accounts service returns on a
// rejected exchange.
type tokenError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// ExchangeRefreshToken exchanges a user's refresh token for an access
// token. Returns ErrInvalidGrant when the upstream reports the token as
// revoked or expired; callers clear the stored credential on that error.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	return c.exchangeToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

// ExchangeClientCredentials obtains a client-level access token with no
// associated user, used for the relationship-graph pass.
func (c *Client) ExchangeClientCredentials(ctx context.Context) (*Token, error) {
	return c.exchangeToken(ctx, url.Values{
		"grant_type": {"client_credentials"},
	})
}

func (c *Client) exchangeToken(ctx context.Context, form url.Values) (*Token, error) {
	encoded := form.Encode()
	body, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.accountsURL+"/api/token", strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Basic "+c.basicAuth())
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			var tokenErr tokenError
			if jsonErr := json.Unmarshal([]byte(statusErr.Body), &tokenErr); jsonErr == nil && tokenErr.Code == "invalid_grant" {
				return nil, fmt.Errorf("%w: %s", ErrInvalidGrant, tokenErr.Description)
			}
		}
		return nil, fmt.Errorf("exchanging token: %w", err)
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	return &token, nil
}

func (c *Client) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
}
