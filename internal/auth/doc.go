// Package auth implements the device-code OAuth flow against the
// identity provider.
//
// # Flow
//
//  1. RequestDeviceCode obtains {user_code, verification_uri}.
//  2. The host shows both to the user.
//  3. PollToken polls the token endpoint at the provider's interval until
//     the user approves in a browser, denies, or the session expires.
//  4. AccountFromToken resolves the player profile and produces an
//     Account with token material and expiry.
//
// Token refresh reuses the same token endpoint with a refresh_token
// grant; an invalid refresh token classifies as an auth error so callers
// prompt for re-authentication instead of retrying.
//
// # Cancellation
//
// PollToken checks its context before every round trip; closing the host
// window mid-poll abandons the session within one interval. The provider
// expires unanswered sessions on its own schedule — there is no local
// timeout.
package auth
