package launcher

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/errs"
	ioutils "github.com/synthlab/launcher/internal/io"
	"github.com/synthlab/launcher/internal/meta"
	"github.com/synthlab/launcher/internal/task"
)

// ResolveManifest starts a task that fetches the version manifest and
// merges it into the on-disk cache.
//
// Versions the upstream has delisted survive in the cache, so the merged
// manifest only ever grows. When the fetch fails but a cached manifest
// exists, the cache is used and the task succeeds; with no cache the
// error surfaces and the manifest stays absent. Re-running replaces the
// in-memory manifest wholesale.
func (s *State) ResolveManifest() *task.Task[task.Unit] {
	return task.Start(context.Background(), func(ctx context.Context) (task.Unit, error) {
		cachePath := filepath.Join(s.settings.RootDir, "version_manifest.json")
		cached := loadManifestCache(cachePath)

		var fetched meta.Manifest
		if err := s.http.GetJSON(ctx, s.settings.ManifestURL, &fetched); err != nil {
			if cached != nil && !errs.IsCancelled(err) {
				s.log.Warn("manifest fetch failed, using cache", zap.Error(err))
				s.mu.Lock()
				s.manifest = cached
				s.mu.Unlock()
				return task.Unit{}, nil
			}
			return task.Unit{}, err
		}

		manifest := &fetched
		if cached != nil {
			cached.Merge(&fetched)
			manifest = cached
		}
		if raw, err := json.Marshal(manifest); err == nil {
			if err := ioutils.WriteFile(cachePath, raw); err != nil {
				s.log.Warn("manifest cache write failed", zap.Error(err))
			}
		}

		s.mu.Lock()
		s.manifest = manifest
		s.mu.Unlock()
		s.log.Info("manifest resolved", zap.Int("versions", len(manifest.Versions)))
		return task.Unit{}, nil
	})
}

func loadManifestCache(path string) *meta.Manifest {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m meta.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return &m
}

// ResolveVersion starts a task that resolves the manifest entry at index
// into full version metadata and then the asset index it references.
//
// The two stages share the task's context; cancellation requested after
// the metadata stage completes is honored before the asset-index stage
// starts. At most one resolution should be in flight: a host changing
// selection cancels the previous handle before starting a new one.
func (s *State) ResolveVersion(index int) *task.Task[task.Unit] {
	return task.Start(context.Background(), func(ctx context.Context) (task.Unit, error) {
		s.mu.RLock()
		desc, err := s.versionAt(index)
		if err != nil {
			s.mu.RUnlock()
			return task.Unit{}, err
		}
		ref := *desc
		s.mu.RUnlock()

		version, err := s.fetchVersionMeta(ctx, &ref)
		if err != nil {
			return task.Unit{}, err
		}

		// Stage boundary: a cancel that landed while metadata was being
		// fetched must stop the asset index from starting.
		if ctx.Err() != nil {
			return task.Unit{}, errs.Cancelled("resolve version " + ref.ID)
		}

		assets, err := s.fetchAssetIndex(ctx, version)
		if err != nil {
			return task.Unit{}, err
		}

		s.mu.Lock()
		s.version = version
		s.assetIndex = assets
		s.mu.Unlock()
		s.log.Info("version resolved",
			zap.String("id", version.ID),
			zap.Int("libraries", len(version.Libraries)),
			zap.Int("assets", len(assets.Objects)))
		return task.Unit{}, nil
	})
}

// fetchVersionMeta loads version metadata from the disk cache when its
// hash still matches the manifest entry, fetching otherwise.
func (s *State) fetchVersionMeta(ctx context.Context, ref *meta.Version) (*meta.VersionMeta, error) {
	cachePath := filepath.Join(s.settings.VersionsDir(), ref.ID, ref.ID+".json")

	if want := sha1FromURL(ref.URL); want != "" {
		if ok, _ := ioutils.FileMatchesSHA1(cachePath, want); ok {
			var v meta.VersionMeta
			if raw, err := os.ReadFile(cachePath); err == nil && json.Unmarshal(raw, &v) == nil {
				return &v, nil
			}
		}
	}

	raw, err := s.http.Get(ctx, ref.URL)
	if err != nil {
		return nil, err
	}
	var v meta.VersionMeta
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errs.New(errs.KindParse, "parse version metadata "+ref.ID, err)
	}
	if err := ioutils.WriteFile(cachePath, raw); err != nil {
		s.log.Warn("version metadata cache write failed", zap.Error(err))
	}
	return &v, nil
}

// fetchAssetIndex loads the asset index from the disk cache when its
// hash still matches the version metadata, fetching otherwise.
func (s *State) fetchAssetIndex(ctx context.Context, version *meta.VersionMeta) (*meta.AssetIndex, error) {
	ref := version.AssetIndex
	cachePath := filepath.Join(s.settings.AssetsDir(), "indexes", ref.ID+".json")

	if ok, _ := ioutils.FileMatchesSHA1(cachePath, ref.SHA1); ok {
		var idx meta.AssetIndex
		if raw, err := os.ReadFile(cachePath); err == nil && json.Unmarshal(raw, &idx) == nil {
			return &idx, nil
		}
	}

	raw, err := s.http.Get(ctx, ref.URL)
	if err != nil {
		return nil, err
	}
	var idx meta.AssetIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, errs.New(errs.KindParse, "parse asset index "+ref.ID, err)
	}
	if err := ioutils.WriteFile(cachePath, raw); err != nil {
		s.log.Warn("asset index cache write failed", zap.Error(err))
	}
	return &idx, nil
}

// sha1FromURL extracts the content hash the metadata service embeds as a
// path segment, or "" when the URL carries none.
func sha1FromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if ioutils.ValidSHA1(seg) {
			return seg
		}
	}
	return ""
}
