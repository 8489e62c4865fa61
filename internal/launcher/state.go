package launcher

import (
	"sync"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/auth"
	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/errs"
	lhttp "github.com/synthlab/launcher/internal/http"
	ioutils "github.com/synthlab/launcher/internal/io"
	"github.com/synthlab/launcher/internal/meta"
	"github.com/synthlab/launcher/internal/store"
)

// State is the session-scoped context for all launcher operations.
//
// Resolution tasks write the manifest, version metadata, and asset index;
// the download pipelines read them and write back the class path and jar
// path. The mutex guards those fields plus the persisted data; the
// registries are additionally index-stable between mutations by the host
// contract documented in the package comment.
type State struct {
	settings *config.Settings
	http     *lhttp.Client
	auth     *auth.Client
	avatars  *ioutils.AvatarService
	log      *zap.Logger

	mu         sync.RWMutex
	manifest   *meta.Manifest
	version    *meta.VersionMeta
	assetIndex *meta.AssetIndex
	data       *store.Data
	deviceCode *auth.DeviceCode
	classPath  string
	jarPath    string
}

// New builds a session from settings, loading persisted accounts and JVM
// registrations from the data file under the root directory.
func New(settings *config.Settings) (*State, error) {
	data, err := store.Load(settings.DataPath())
	if err != nil {
		return nil, errs.New(errs.KindIO, "load launcher data", err)
	}

	httpClient := lhttp.NewClient()
	return &State{
		settings: settings,
		http:     httpClient,
		auth:     auth.NewClient(httpClient, settings),
		avatars:  ioutils.NewAvatarService(),
		log:      zap.NewNop(),
		data:     data,
	}, nil
}

// SetLogger installs a logger for resolution and pipeline diagnostics.
// The default is a no-op logger so library use stays silent.
func (s *State) SetLogger(log *zap.Logger) {
	s.log = log
}

// Settings returns the session settings. The settings are not mutated
// after construction, so no locking applies.
func (s *State) Settings() *config.Settings {
	return s.settings
}

// HTTP returns the shared HTTP client.
func (s *State) HTTP() *lhttp.Client {
	return s.http
}

// Logger returns the session logger.
func (s *State) Logger() *zap.Logger {
	return s.log
}

// Auth returns the identity-provider client, exposed so hosts and tests
// can tune its polling interval.
func (s *State) Auth() *auth.Client {
	return s.auth
}

// Version returns the currently resolved version metadata, or a
// precondition error before a successful version resolution.
func (s *State) Version() (*meta.VersionMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == nil {
		return nil, errs.Newf(errs.KindPrecondition, "version metadata", "no version resolved")
	}
	return s.version, nil
}

// AssetIndex returns the currently resolved asset index, or a
// precondition error before a successful version resolution.
func (s *State) AssetIndex() (*meta.AssetIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.assetIndex == nil {
		return nil, errs.Newf(errs.KindPrecondition, "asset index", "no version resolved")
	}
	return s.assetIndex, nil
}

// SetClassPath records the class path assembled by the library pipeline.
func (s *State) SetClassPath(cp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classPath = cp
}

// SetJarPath records the game jar path produced by the jar pipeline.
func (s *State) SetJarPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jarPath = path
}

// ManifestLen returns the number of versions in the resolved manifest.
func (s *State) ManifestLen() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return 0, errs.Newf(errs.KindPrecondition, "manifest length", "manifest not resolved")
	}
	return len(s.manifest.Versions), nil
}

// VersionName returns the ID of the manifest entry at index i.
func (s *State) VersionName(i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.versionAt(i)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

// VersionKind returns the release kind of the manifest entry at index i.
func (s *State) VersionKind(i int) (meta.ReleaseKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.versionAt(i)
	if err != nil {
		return 0, err
	}
	return v.Kind, nil
}

// LatestRelease returns the ID of the newest release in the manifest.
func (s *State) LatestRelease() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return "", errs.Newf(errs.KindPrecondition, "latest release", "manifest not resolved")
	}
	return s.manifest.Latest.Release, nil
}

// versionAt looks up a manifest entry; callers hold the read lock.
func (s *State) versionAt(i int) (*meta.Version, error) {
	if s.manifest == nil {
		return nil, errs.Newf(errs.KindPrecondition, "version lookup", "manifest not resolved")
	}
	if i < 0 || i >= len(s.manifest.Versions) {
		return nil, errs.Newf(errs.KindPrecondition, "version lookup", "index %d out of range (manifest has %d versions)", i, len(s.manifest.Versions))
	}
	return &s.manifest.Versions[i], nil
}

// commit persists the launcher data; callers hold the write lock.
func (s *State) commit() error {
	if err := s.data.Save(s.settings.DataPath()); err != nil {
		return errs.New(errs.KindIO, "commit launcher data", err)
	}
	return nil
}
