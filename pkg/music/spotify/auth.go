package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// errNotConnected is returned when no token has been loaded.
var errNotConnected = errors.New("not connected to Spotify")

// token is the OAuth token, persisted to the cache file in the same
// shape Spotify returns it.
type token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// expired reports whether the token needs a refresh, with a minute of
// slack so requests don't race the expiry.
func (t *token) expired() bool {
	return time.Now().Unix() > t.ExpiresAt-60
}

// AuthURL returns the Spotify authorization URL the user must visit.
func (c *Client) AuthURL() string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", c.redirectURI)
	params.Set("scope", strings.Join(Scopes, " "))
	return c.accountsURL + "/authorize?" + params.Encode()
}

// Exchange completes authentication with the authorization code.
func (c *Client) Exchange(ctx context.Context, code string) error {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)

	tok, err := c.fetchToken(ctx, form)
	if err != nil {
		c.logger.Error("spotify authentication failed", "error", err)
		return err
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	c.saveToken(tok)
	c.logger.Info("spotify authenticated")
	return nil
}

// LoadCachedToken tries to load a previously saved token.
func (c *Client) LoadCachedToken() bool {
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return false
	}

	var tok token
	if err := json.Unmarshal(data, &tok); err != nil {
		c.logger.Warn("spotify token cache unreadable", "path", c.cachePath, "error", err)
		return false
	}
	if tok.AccessToken == "" {
		return false
	}

	c.mu.Lock()
	c.token = &tok
	c.mu.Unlock()

	c.logger.Info("spotify loaded cached token")
	return true
}

// ensureToken makes sure a valid access token is available,
// refreshing it if expired.
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return errNotConnected
	}
	if !c.token.expired() {
		return nil
	}

	c.logger.Info("spotify refreshing expired token")
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.token.RefreshToken)

	tok, err := c.fetchToken(ctx, form)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	// Spotify may omit the refresh token on refresh responses.
	if tok.RefreshToken == "" {
		tok.RefreshToken = c.token.RefreshToken
	}

	c.token = tok
	c.saveToken(tok)
	return nil
}

// accessToken returns the current access token.
func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// fetchToken posts to the token endpoint and decodes the result.
func (c *Client) fetchToken(ctx context.Context, form url.Values) (*token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tok token
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	tok.ExpiresAt = time.Now().Unix() + int64(tok.ExpiresIn)
	return &tok, nil
}

// saveToken persists the token to the cache file.
func (c *Client) saveToken(tok *token) {
	data, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := os.WriteFile(c.cachePath, data, 0o600); err != nil {
		c.logger.Warn("spotify token cache write failed", "path", c.cachePath, "error", err)
	}
}
