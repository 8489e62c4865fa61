package launcher

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/auth"
	"github.com/synthlab/launcher/internal/errs"
	ioutils "github.com/synthlab/launcher/internal/io"
	"github.com/synthlab/launcher/internal/task"
)

// AccountsLen returns the number of registered accounts.
func (s *State) AccountsLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Accounts)
}

// AccountName returns the display name of the account at index i.
func (s *State) AccountName(i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.data.Accounts) {
		return "", errs.Newf(errs.KindPrecondition, "account lookup", "index %d out of range", i)
	}
	return s.data.Accounts[i].DisplayName(), nil
}

// AccountNeedsRefresh reports whether the account at index i holds an
// expired access token.
func (s *State) AccountNeedsRefresh(i int, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.data.Accounts) {
		return false, errs.Newf(errs.KindPrecondition, "account lookup", "index %d out of range", i)
	}
	return s.data.Accounts[i].NeedsRefresh(now), nil
}

// RemoveAccount removes the account at index i and commits. Indices
// above i shift down; the host must not hold stale indices across this.
func (s *State) RemoveAccount(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.data.Accounts) {
		return errs.Newf(errs.KindPrecondition, "remove account", "index %d out of range", i)
	}
	s.data.Accounts = append(s.data.Accounts[:i], s.data.Accounts[i+1:]...)
	return s.commit()
}

// putAccount appends a new account or replaces the entry sharing its
// profile ID, returning the account's index. Callers hold the write lock.
func (s *State) putAccount(account *auth.Account) int {
	for i := range s.data.Accounts {
		if s.data.Accounts[i].Profile.ID == account.Profile.ID {
			s.data.Accounts[i] = *account
			return i
		}
	}
	s.data.Accounts = append(s.data.Accounts, *account)
	return len(s.data.Accounts) - 1
}

// RequestDeviceCode starts a task that opens a device-authorization
// session with the identity provider.
//
// The session is remembered by the State for the subsequent
// PollDeviceAuth; at most one session is active at a time, and a new
// request replaces the previous session.
func (s *State) RequestDeviceCode() *task.Task[*auth.DeviceCode] {
	return task.Start(context.Background(), func(ctx context.Context) (*auth.DeviceCode, error) {
		dc, err := s.auth.RequestDeviceCode(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.deviceCode = dc
		s.mu.Unlock()
		return dc, nil
	})
}

// PollDeviceAuth starts a task that polls the active device-code session
// until the user completes browser verification, then registers the
// signed-in account and returns its registry index.
//
// On success the account is committed to storage and the session is
// cleared. The player's face icon is rendered to the avatar cache on a
// best-effort basis; avatar failures never fail the sign-in.
func (s *State) PollDeviceAuth() *task.Task[int] {
	return task.Start(context.Background(), func(ctx context.Context) (int, error) {
		s.mu.RLock()
		dc := s.deviceCode
		s.mu.RUnlock()
		if dc == nil {
			return 0, errs.Newf(errs.KindPrecondition, "poll device auth", "no device-code session; call RequestDeviceCode first")
		}

		token, err := s.auth.PollToken(ctx, dc)
		if err != nil {
			return 0, err
		}
		account, err := s.auth.AccountFromToken(ctx, token, time.Now())
		if err != nil {
			return 0, err
		}

		s.mu.Lock()
		index := s.putAccount(account)
		s.deviceCode = nil
		err = s.commit()
		s.mu.Unlock()
		if err != nil {
			return 0, err
		}

		s.cacheAvatar(ctx, account)
		s.log.Info("account signed in", zap.String("name", account.DisplayName()), zap.Int("index", index))
		return index, nil
	})
}

// RefreshAccount starts a task that mints a new access token for the
// account at index using its stored refresh token.
//
// An invalid or expired refresh token surfaces as an auth error; the
// host should prompt for re-authentication rather than retry.
func (s *State) RefreshAccount(index int) *task.Task[task.Unit] {
	return task.Start(context.Background(), func(ctx context.Context) (task.Unit, error) {
		s.mu.RLock()
		if index < 0 || index >= len(s.data.Accounts) {
			s.mu.RUnlock()
			return task.Unit{}, errs.Newf(errs.KindPrecondition, "refresh account", "index %d out of range", index)
		}
		refreshToken := s.data.Accounts[index].RefreshToken
		s.mu.RUnlock()

		token, err := s.auth.Refresh(ctx, refreshToken)
		if err != nil {
			return task.Unit{}, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if index >= len(s.data.Accounts) {
			return task.Unit{}, errs.Newf(errs.KindPrecondition, "refresh account", "account %d removed during refresh", index)
		}
		acc := &s.data.Accounts[index]
		acc.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			acc.RefreshToken = token.RefreshToken
		}
		acc.Expiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second).Unix()
		return task.Unit{}, s.commit()
	})
}

// cacheAvatar fetches the account's skin and renders the face icon into
// the avatar cache. Best effort only.
func (s *State) cacheAvatar(ctx context.Context, account *auth.Account) {
	skinURL := account.Profile.ActiveSkinURL()
	if skinURL == "" {
		return
	}
	skin, err := s.http.DownloadBytes(ctx, skinURL)
	if err != nil {
		s.log.Debug("skin fetch failed", zap.Error(err))
		return
	}
	icon, err := s.avatars.RenderFace(skin, 64)
	if err != nil {
		s.log.Debug("avatar render failed", zap.Error(err))
		return
	}
	path := filepath.Join(s.settings.AvatarsDir(), account.Profile.ID+".png")
	if err := ioutils.WriteFile(path, icon); err != nil {
		s.log.Debug("avatar cache write failed", zap.Error(err))
	}
}

// AvatarPath returns where the face icon for the account at index i is
// cached. The file exists only after a successful sign-in with a skin.
func (s *State) AvatarPath(i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.data.Accounts) {
		return "", errs.Newf(errs.KindPrecondition, "avatar lookup", "index %d out of range", i)
	}
	return filepath.Join(s.settings.AvatarsDir(), s.data.Accounts[i].Profile.ID+".png"), nil
}
