package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/errs"
	lhttp "github.com/synthlab/launcher/internal/http"
)

// Provider error codes defined by the device-authorization grant.
const (
	errAuthorizationPending  = "authorization_pending"
	errSlowDown              = "slow_down"
	errAuthorizationDeclined = "authorization_declined"
	errExpiredToken          = "expired_token"
	errBadVerificationCode   = "bad_verification_code"
	errInvalidGrant          = "invalid_grant"
)

// Client talks to the identity provider.
//
// The three remote calls — device-code request, token poll, token
// refresh — are consumed as opaque endpoints configured through Settings,
// so tests point them at local servers.
type Client struct {
	http     *lhttp.Client
	clientID string
	scope    string

	deviceCodeURL string
	tokenURL      string
	profileURL    string

	// PollInterval overrides the provider-specified polling interval
	// when positive. Tests use it to poll fast.
	PollInterval time.Duration

	// SlowDownStep overrides the five-second slow_down backoff when
	// positive. Tests use it to keep the backoff observable but fast.
	SlowDownStep time.Duration
}

// pollState classifies one token-endpoint round trip of the device flow.
type pollState int

const (
	pollDone pollState = iota
	pollPending
	pollSlowDown
)

// NewClient creates an identity-provider client from settings.
func NewClient(httpClient *lhttp.Client, settings *config.Settings) *Client {
	return &Client{
		http:          httpClient,
		clientID:      settings.ClientID,
		scope:         settings.Scope,
		deviceCodeURL: settings.DeviceCodeURL,
		tokenURL:      settings.TokenURL,
		profileURL:    settings.ProfileURL,
	}
}

// RequestDeviceCode obtains a fresh device-authorization session.
func (c *Client) RequestDeviceCode(ctx context.Context) (*DeviceCode, error) {
	var dc DeviceCode
	status, err := c.http.PostForm(ctx, c.deviceCodeURL, map[string]string{
		"client_id":     c.clientID,
		"response_type": "code",
		"scope":         c.scope,
	}, &dc)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || dc.DeviceCode == "" {
		return nil, errs.Newf(errs.KindAuth, "request device code", "provider returned HTTP %d", status)
	}
	return &dc, nil
}

// PollToken polls the token endpoint until the user completes browser
// verification, denies the request, or the session expires.
//
// The loop sleeps the provider-specified interval between polls and
// checks ctx before each round-trip, so cancellation takes effect within
// one interval. Denial and expiry surface as KindAuth.
func (c *Client) PollToken(ctx context.Context, dc *DeviceCode) (*Token, error) {
	interval := time.Duration(dc.Interval) * time.Second
	if c.PollInterval > 0 {
		interval = c.PollInterval
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return nil, errs.Cancelled("device authorization poll")
		case <-time.After(interval):
		}

		token, state, err := c.requestToken(ctx, map[string]string{
			"grant_type":  "urn:ietf:params:oauth:grant-type:device_code",
			"client_id":   c.clientID,
			"device_code": dc.DeviceCode,
		})
		if err != nil {
			return nil, err
		}
		switch state {
		case pollSlowDown:
			// RFC 8628 §3.5: slow_down means keep waiting AND back off
			// by five seconds on every subsequent poll.
			step := 5 * time.Second
			if c.SlowDownStep > 0 {
				step = c.SlowDownStep
			}
			interval += step
			continue
		case pollPending:
			continue
		}
		return token, nil
	}
}

// Refresh mints a new access token from a stored refresh token.
//
// An invalid or expired refresh token surfaces as KindAuth; callers
// should prompt for re-authentication rather than retry.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	token, state, err := c.requestToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     c.clientID,
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if state != pollDone {
		// A refresh grant has no pending state; treat it as a protocol
		// violation from the provider.
		return nil, errs.Newf(errs.KindAuth, "refresh token", "unexpected pending response")
	}
	return token, nil
}

// requestToken performs one token-endpoint round trip and classifies the
// outcome: approved, still pending, or pending with a slow_down backoff
// request from the provider.
func (c *Client) requestToken(ctx context.Context, form map[string]string) (*Token, pollState, error) {
	var resp tokenResponse
	if _, err := c.http.PostForm(ctx, c.tokenURL, form, &resp); err != nil {
		return nil, pollDone, err
	}

	switch resp.Error {
	case "":
		if resp.AccessToken == "" {
			return nil, pollDone, errs.Newf(errs.KindAuth, "token request", "provider returned no token")
		}
		return &resp.Token, pollDone, nil
	case errAuthorizationPending:
		return nil, pollPending, nil
	case errSlowDown:
		return nil, pollSlowDown, nil
	case errAuthorizationDeclined, errExpiredToken, errBadVerificationCode, errInvalidGrant:
		return nil, pollDone, errs.Newf(errs.KindAuth, "token request", "%s: %s", resp.Error, resp.ErrorDescription)
	default:
		return nil, pollDone, errs.Newf(errs.KindAuth, "token request", "unrecognized provider error %q", resp.Error)
	}
}

// FetchProfile resolves the player profile behind an access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var p Profile
	if err := c.http.GetJSONAuthorized(ctx, c.profileURL, accessToken, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errs.Newf(errs.KindAuth, "fetch profile", "token has no game profile")
	}
	return &p, nil
}

// AccountFromToken builds an Account by resolving the token's profile
// and stamping the expiry from the grant lifetime.
func (c *Client) AccountFromToken(ctx context.Context, token *Token, now time.Time) (*Account, error) {
	profile, err := c.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return &Account{
		Profile:      *profile,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       now.Add(time.Duration(token.ExpiresIn) * time.Second).Unix(),
	}, nil
}
