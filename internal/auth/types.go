package auth

import "time"

// DeviceCode is one device-authorization session.
//
// The user enters UserCode at VerificationURI on any browser while the
// launcher polls the token endpoint. A session is consumed by exactly one
// polling loop and is never persisted.
type DeviceCode struct {
	UserCode        string `json:"user_code"`
	DeviceCode      string `json:"device_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// Token is the provider's token grant.
type Token struct {
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the wire shape of the token endpoint, which reports
// flow state through the OAuth "error" field rather than HTTP status
// alone.
type tokenResponse struct {
	Token
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Profile identifies a player.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skins []Skin `json:"skins"`
}

// Skin is one skin texture attached to a profile.
type Skin struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	URL     string `json:"url"`
	Variant string `json:"variant"`
}

// ActiveSkinURL returns the URL of the profile's active skin, or the
// first skin when none is marked active, or "" for skinless profiles.
func (p *Profile) ActiveSkinURL() string {
	for _, s := range p.Skins {
		if s.State == "ACTIVE" {
			return s.URL
		}
	}
	if len(p.Skins) > 0 {
		return p.Skins[0].URL
	}
	return ""
}

// Account is a signed-in player: profile plus token material.
type Account struct {
	Profile      Profile `json:"profile"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	Expiry       int64   `json:"expiry"` // unix seconds
}

// DisplayName returns the player name shown in account lists.
func (a *Account) DisplayName() string {
	return a.Profile.Name
}

// NeedsRefresh reports whether the access token has expired relative to
// now. It is a pure function of Expiry; no clock is stored.
func (a *Account) NeedsRefresh(now time.Time) bool {
	return a.Expiry <= now.Unix()
}
