// Package oauth holds the thin client for the external identity provider.
// The service consumes exactly one provider contract: exchange a bearer
// access token for the user's profile, of which only the email is used.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidCredential is returned when the provider rejects the presented
// access token (any non-2xx response).
var ErrInvalidCredential = errors.New("provider rejected access token")

// UserInfo is the subset of the provider's userinfo response we rely on.
type UserInfo struct {
	Email string `json:"email"`
}

// Provider is the contract handlers depend on, mockable in tests.
type Provider interface {
	Userinfo(ctx context.Context, accessToken string) (UserInfo, error)
}

// GoogleClient calls Google's userinfo endpoint. The URL is injectable so
// tests can point it at a local server.
type GoogleClient struct {
	UserinfoURL string
	HTTPClient  *http.Client
}

func NewGoogleClient(userinfoURL string) *GoogleClient {
	return &GoogleClient{
		UserinfoURL: userinfoURL,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Userinfo exchanges an access token for the provider profile. A non-2xx
// status means the token is bad from our point of view, whatever the
// provider's exact reason.
func (c *GoogleClient) Userinfo(ctx context.Context, accessToken string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UserinfoURL, nil)
	if err != nil {
		return UserInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return UserInfo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UserInfo{}, ErrInvalidCredential
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return UserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return UserInfo{}, fmt.Errorf("userinfo response missing email")
	}
	return info, nil
}
