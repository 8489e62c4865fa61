package launcher

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/synthlab/launcher/internal/auth"
	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/errs"
	"github.com/synthlab/launcher/internal/meta"
	"github.com/synthlab/launcher/internal/store"
)

// testBackend serves a two-version manifest: "fast" resolves
// immediately, "slow" blocks until the request is abandoned.
type testBackend struct {
	srv        *httptest.Server
	manifest   atomic.Pointer[meta.Manifest]
	authorized atomic.Bool
	tokenPolls atomic.Int32
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(b.manifest.Load())
	})
	mux.HandleFunc("/fast.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(meta.VersionMeta{
			ID:        "1.20.1",
			Type:      "release",
			MainClass: "net.minecraft.client.main.Main",
			AssetIndex: meta.AssetIndexRef{
				ID:   "5",
				SHA1: "0000000000000000000000000000000000000000",
				URL:  b.srv.URL + "/assetindex.json",
			},
		})
	})
	mux.HandleFunc("/slow.json", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	mux.HandleFunc("/assetindex.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(meta.AssetIndex{
			Objects: map[string]meta.AssetObject{
				"minecraft/lang/en_us.json": {Hash: "da39a3ee5e6b4b0d3255bfef95601890afd80709", Size: 0},
			},
		})
	})

	mux.HandleFunc("/devicecode", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user_code":        "WXYZ-9876",
			"device_code":      "dc-secret",
			"verification_uri": "https://verify.example",
			"expires_in":       900,
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("grant_type") == "refresh_token" {
			json.NewEncoder(w).Encode(map[string]any{
				"token_type": "Bearer", "expires_in": 3600,
				"access_token": "refreshed-access", "refresh_token": "refreshed-refresh",
			})
			return
		}
		b.tokenPolls.Add(1)
		if !b.authorized.Load() {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token_type": "Bearer", "expires_in": 3600,
			"access_token": "access-1", "refresh_token": "refresh-1",
		})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "p-1", "name": "Steve"})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)

	b.manifest.Store(&meta.Manifest{
		Latest: meta.Latest{Release: "1.20.1", Snapshot: "1.20.1"},
		Versions: []meta.Version{
			{ID: "1.20.1", Kind: meta.Release, URL: b.srv.URL + "/fast.json"},
			{ID: "1.19.4", Kind: meta.Release, URL: b.srv.URL + "/slow.json"},
		},
	})
	return b
}

func (b *testBackend) state(t *testing.T) *State {
	t.Helper()
	s := config.DefaultSettings()
	s.RootDir = t.TempDir()
	s.ManifestURL = b.srv.URL + "/manifest.json"
	s.AssetBaseURL = b.srv.URL + "/assets"
	s.DeviceCodeURL = b.srv.URL + "/devicecode"
	s.TokenURL = b.srv.URL + "/token"
	s.ProfileURL = b.srv.URL + "/profile"

	state, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	state.Auth().PollInterval = 2 * time.Millisecond
	return state
}

// drain polls the predicate until true or the deadline passes.
func drain(t *testing.T, poll func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !poll() {
		if time.Now().After(deadline) {
			t.Fatal("task did not reach a terminal state")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAccessorsBeforeResolution(t *testing.T) {
	state := newTestBackend(t).state(t)

	if _, err := state.ManifestLen(); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("ManifestLen before resolution: kind = %v, want precondition", errs.KindOf(err))
	}
	if _, err := state.VersionName(0); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("VersionName before resolution: kind = %v, want precondition", errs.KindOf(err))
	}
	if _, err := state.LatestRelease(); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("LatestRelease before resolution: kind = %v, want precondition", errs.KindOf(err))
	}
	if _, err := state.Version(); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("Version before resolution: kind = %v, want precondition", errs.KindOf(err))
	}
}

func TestResolveManifest(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	handle := state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatalf("ResolveManifest error = %v", err)
	}

	n, err := state.ManifestLen()
	if err != nil || n != 2 {
		t.Errorf("ManifestLen() = (%d, %v), want (2, nil)", n, err)
	}
	name, err := state.VersionName(0)
	if err != nil || name != "1.20.1" {
		t.Errorf("VersionName(0) = (%q, %v)", name, err)
	}
	kind, err := state.VersionKind(0)
	if err != nil || kind != meta.Release {
		t.Errorf("VersionKind(0) = (%v, %v)", kind, err)
	}
	latest, err := state.LatestRelease()
	if err != nil || latest != "1.20.1" {
		t.Errorf("LatestRelease() = (%q, %v)", latest, err)
	}
}

func TestResolveManifestMergesCache(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	handle := state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatal(err)
	}

	// Upstream delists 1.19.4 and ships a newer release.
	b.manifest.Store(&meta.Manifest{
		Latest: meta.Latest{Release: "1.21", Snapshot: "1.21"},
		Versions: []meta.Version{
			{ID: "1.21", Kind: meta.Release, URL: b.srv.URL + "/fast.json"},
			{ID: "1.20.1", Kind: meta.Release, URL: b.srv.URL + "/fast.json"},
		},
	})

	handle = state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatal(err)
	}

	n, _ := state.ManifestLen()
	if n != 3 {
		t.Errorf("merged manifest has %d versions, want 3 (delisted version retained)", n)
	}
	latest, _ := state.LatestRelease()
	if latest != "1.21" {
		t.Errorf("LatestRelease() = %q, want 1.21", latest)
	}
}

func TestResolveVersion(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	handle := state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatal(err)
	}

	resolve := state.ResolveVersion(0)
	drain(t, resolve.Poll)
	if _, err := resolve.Await(); err != nil {
		t.Fatalf("ResolveVersion error = %v", err)
	}

	version, err := state.Version()
	if err != nil || version.ID != "1.20.1" {
		t.Errorf("Version() = (%+v, %v)", version, err)
	}
	index, err := state.AssetIndex()
	if err != nil || len(index.Objects) != 1 {
		t.Errorf("AssetIndex() = (%+v, %v)", index, err)
	}
}

func TestResolveVersionSingleFlightReplacement(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	handle := state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatal(err)
	}

	// Select the slow version, then change selection: cancel it and
	// start the fast one.
	first := state.ResolveVersion(1)
	time.Sleep(10 * time.Millisecond)
	first.Cancel()
	second := state.ResolveVersion(0)

	drain(t, first.Poll)
	if _, err := first.Await(); !errs.IsCancelled(err) {
		t.Errorf("superseded resolution error = %v, want cancelled", err)
	}

	drain(t, second.Poll)
	if _, err := second.Await(); err != nil {
		t.Fatalf("replacement resolution error = %v", err)
	}
	version, err := state.Version()
	if err != nil || version.ID != "1.20.1" {
		t.Errorf("Version() after replacement = (%+v, %v), want the replacement selection", version, err)
	}
}

func TestResolveVersionOutOfRange(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	handle := state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatal(err)
	}

	resolve := state.ResolveVersion(99)
	drain(t, resolve.Poll)
	if _, err := resolve.Await(); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("out-of-range resolve kind = %v, want precondition", errs.KindOf(err))
	}
}

func TestDeviceFlowEndToEnd(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	request := state.RequestDeviceCode()
	drain(t, request.Poll)
	dc, err := request.Await()
	if err != nil {
		t.Fatalf("RequestDeviceCode error = %v", err)
	}
	if dc.UserCode != "WXYZ-9876" || dc.VerificationURI != "https://verify.example" {
		t.Errorf("device code = %+v", dc)
	}

	poll := state.PollDeviceAuth()

	// The provider keeps answering pending until the user authorizes.
	go func() {
		for b.tokenPolls.Load() < 2 {
			time.Sleep(time.Millisecond)
		}
		b.authorized.Store(true)
	}()

	drain(t, poll.Poll)
	index, err := poll.Await()
	if err != nil {
		t.Fatalf("PollDeviceAuth error = %v", err)
	}
	if index != 0 {
		t.Errorf("new account index = %d, want 0", index)
	}
	if state.AccountsLen() != 1 {
		t.Errorf("AccountsLen() = %d, want 1", state.AccountsLen())
	}
	name, err := state.AccountName(0)
	if err != nil || name != "Steve" {
		t.Errorf("AccountName(0) = (%q, %v)", name, err)
	}

	// The sign-in must be durable.
	persisted, err := store.Load(state.Settings().DataPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted.Accounts) != 1 || persisted.Accounts[0].Profile.Name != "Steve" {
		t.Errorf("persisted accounts = %+v", persisted.Accounts)
	}
}

func TestPollDeviceAuthWithoutSession(t *testing.T) {
	state := newTestBackend(t).state(t)

	poll := state.PollDeviceAuth()
	drain(t, poll.Poll)
	if _, err := poll.Await(); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("poll without session kind = %v, want precondition", errs.KindOf(err))
	}
}

func TestRefreshAccount(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	// Seed an expired account directly.
	state.mu.Lock()
	state.data.Accounts = append(state.data.Accounts, seedAccount("stale-access", "stale-refresh", time.Now().Add(-time.Hour)))
	state.mu.Unlock()

	stale, err := state.AccountNeedsRefresh(0, time.Now())
	if err != nil || !stale {
		t.Fatalf("AccountNeedsRefresh before refresh = (%v, %v), want (true, nil)", stale, err)
	}

	refresh := state.RefreshAccount(0)
	drain(t, refresh.Poll)
	if _, err := refresh.Await(); err != nil {
		t.Fatalf("RefreshAccount error = %v", err)
	}

	stale, err = state.AccountNeedsRefresh(0, time.Now())
	if err != nil || stale {
		t.Errorf("AccountNeedsRefresh after refresh = (%v, %v), want (false, nil)", stale, err)
	}
	state.mu.RLock()
	acc := state.data.Accounts[0]
	state.mu.RUnlock()
	if acc.AccessToken != "refreshed-access" || acc.RefreshToken != "refreshed-refresh" {
		t.Errorf("refreshed tokens = (%q, %q)", acc.AccessToken, acc.RefreshToken)
	}
}

func TestRemoveJVMGuardsSystemDefault(t *testing.T) {
	state := newTestBackend(t).state(t)

	if state.JVMsLen() != 1 {
		t.Fatalf("JVMsLen() = %d, want 1", state.JVMsLen())
	}
	if err := state.RemoveJVM(0); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("RemoveJVM(0) kind = %v, want precondition", errs.KindOf(err))
	}
	name, err := state.JVMName(0)
	if err != nil || name != "Java (system default)" {
		t.Errorf("JVMName(0) = (%q, %v)", name, err)
	}
}

func TestRemoveAccountShiftsIndices(t *testing.T) {
	state := newTestBackend(t).state(t)

	state.mu.Lock()
	state.data.Accounts = append(state.data.Accounts,
		seedNamedAccount("a", "Alpha"),
		seedNamedAccount("b", "Beta"),
	)
	state.mu.Unlock()

	if err := state.RemoveAccount(0); err != nil {
		t.Fatalf("RemoveAccount error = %v", err)
	}
	if state.AccountsLen() != 1 {
		t.Fatalf("AccountsLen() = %d, want 1", state.AccountsLen())
	}
	name, _ := state.AccountName(0)
	if name != "Beta" {
		t.Errorf("AccountName(0) after removal = %q, want Beta", name)
	}

	if err := state.RemoveAccount(5); errs.KindOf(err) != errs.KindPrecondition {
		t.Errorf("out-of-range removal kind = %v, want precondition", errs.KindOf(err))
	}
}

func TestVersionMetadataCached(t *testing.T) {
	b := newTestBackend(t)
	state := b.state(t)

	handle := state.ResolveManifest()
	drain(t, handle.Poll)
	if _, err := handle.Await(); err != nil {
		t.Fatal(err)
	}

	resolve := state.ResolveVersion(0)
	drain(t, resolve.Poll)
	if _, err := resolve.Await(); err != nil {
		t.Fatal(err)
	}

	cachePath := filepath.Join(state.Settings().VersionsDir(), "1.20.1", "1.20.1.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("version metadata not cached at %s: %v", cachePath, err)
	}
	indexPath := filepath.Join(state.Settings().AssetsDir(), "indexes", "5.json")
	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("asset index not cached at %s: %v", indexPath, err)
	}
}

func seedAccount(access, refresh string, expiry time.Time) auth.Account {
	return auth.Account{
		Profile:      auth.Profile{ID: "p-seed", Name: "Seed"},
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       expiry.Unix(),
	}
}

func seedNamedAccount(id, name string) auth.Account {
	return auth.Account{Profile: auth.Profile{ID: id, Name: name}}
}
