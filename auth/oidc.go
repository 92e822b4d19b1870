package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/config"
)

// ProviderTokens holds the opaque tokens issued by a federated identity
// provider, stored on the session so it can be refreshed in place.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// UserInfo is the identity resolved from the provider's userinfo endpoint.
type UserInfo struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
}

// TokenRefresher exchanges a refresh token for new provider tokens. It is
// the federated half of the credential verifier; the local half is the
// bcrypt check in Service.Authenticate.
type TokenRefresher interface {
	Refresh(refreshToken string) (*ProviderTokens, error)
}

// OIDCClient talks to the configured identity provider over plain HTTP:
// userinfo lookup to validate an access token, and the refresh-token grant.
type OIDCClient struct {
	cfg    *config.Config
	client *http.Client
}

// NewOIDCClient creates a client for the configured provider.
func NewOIDCClient(cfg *config.Config) *OIDCClient {
	return &OIDCClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Userinfo validates the access token against the provider and returns the
// identity claims it vouches for.
func (o *OIDCClient) Userinfo(accessToken string) (*UserInfo, error) {
	req, err := http.NewRequest(http.MethodGet, o.cfg.OIDCUserinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo response: %v", err)
	}
	if info.Email == "" {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return &info, nil
}

// Refresh performs the refresh-token grant against the provider's token
// endpoint.
func (o *OIDCClient) Refresh(refreshToken string) (*ProviderTokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", o.cfg.OIDCClientID)
	if o.cfg.OIDCClientSecret != "" {
		form.Set("client_secret", o.cfg.OIDCClientSecret)
	}

	resp, err := o.client.Post(o.cfg.OIDCTokenURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding token response: %v", err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	tokens := &ProviderTokens{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
	}
	if body.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
		tokens.ExpiresAt = &t
	}
	return tokens, nil
}
