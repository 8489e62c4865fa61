package download

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/synthlab/launcher/internal/errs"
	ioutils "github.com/synthlab/launcher/internal/io"
	"github.com/synthlab/launcher/internal/launcher"
	"github.com/synthlab/launcher/internal/meta"
	"github.com/synthlab/launcher/internal/task"
)

// libraryEntry is one platform-applicable library resolved from the
// version metadata.
type libraryEntry struct {
	name     string
	artifact meta.Artifact
	native   bool
	exclude  []string
}

// Libraries starts the library pipeline: every library the resolved
// version needs on this platform is fetched into the libraries store,
// native jars are extracted into the version's natives directory, and
// the assembled class path is returned as the task's value.
//
// The class path lists non-native artifacts in metadata order joined
// with the OS path-list separator; on success it is also recorded on the
// session state for launch assembly.
func Libraries(state *launcher.State) (*task.Task[string], *task.Counter) {
	counter := &task.Counter{}

	t := task.Start(context.Background(), func(ctx context.Context) (string, error) {
		version, err := state.Version()
		if err != nil {
			return "", err
		}
		settings := state.Settings()
		log := state.Logger()

		osName := meta.OSName(runtime.GOOS)
		arch := meta.ArchName(runtime.GOARCH)
		nativesDir := filepath.Join(settings.NativesDir(), version.ID)

		var entries []libraryEntry
		var classPaths []string
		for i := range version.Libraries {
			lib := &version.Libraries[i]
			artifact, native, ok := lib.ArtifactFor(osName, arch)
			if !ok {
				continue
			}
			entry := libraryEntry{name: lib.Name, artifact: *artifact, native: native}
			if lib.Extract != nil {
				entry.exclude = lib.Extract.Exclude
			}
			entries = append(entries, entry)
			if !native {
				classPaths = append(classPaths, filepath.Join(settings.LibrariesDir(), filepath.FromSlash(artifact.Path)))
			}
		}

		counter.SetTotal(uint64(len(entries)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(settings.MaxConcurrentDownloads)

		for _, entry := range entries {
			entry := entry
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				dest := filepath.Join(settings.LibrariesDir(), filepath.FromSlash(entry.artifact.Path))
				if ok, _ := ioutils.FileMatchesSHA1(dest, entry.artifact.SHA1); !ok {
					err := withRetry(gctx, settings, log, "library "+entry.name, func() error {
						data, err := state.HTTP().DownloadBytes(gctx, entry.artifact.URL)
						if err != nil {
							return err
						}
						if entry.artifact.SHA1 != "" && ioutils.SHA1Bytes(data) != entry.artifact.SHA1 {
							return errs.Newf(errs.KindIO, "library "+entry.name, "hash mismatch")
						}
						if err := ioutils.WriteFile(dest, data); err != nil {
							return errs.New(errs.KindIO, "library "+entry.name, err)
						}
						return nil
					})
					if err != nil {
						return err
					}
				}

				if entry.native {
					if err := extractNatives(dest, nativesDir, entry.exclude); err != nil {
						return errs.New(errs.KindIO, "extract "+entry.name, err)
					}
				}
				counter.Add(1)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return "", err
		}

		classPath := strings.Join(classPaths, string(os.PathListSeparator))
		state.SetClassPath(classPath)
		log.Info("libraries complete",
			zap.Int("libraries", len(entries)),
			zap.Int("classpath entries", len(classPaths)))
		return classPath, nil
	})

	return t, counter
}

// extractNatives unpacks a native jar into dir, skipping directories,
// signature metadata, and any excluded prefixes.
func extractNatives(jarPath, dir string, exclude []string) error {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || excluded(f.Name, exclude) {
			continue
		}
		if err := extractOne(f, dir); err != nil {
			return err
		}
	}
	return nil
}

func excluded(name string, exclude []string) bool {
	if strings.HasPrefix(name, "META-INF/") {
		return true
	}
	for _, prefix := range exclude {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func extractOne(f *zip.File, dir string) error {
	// Flatten: natives load from one directory, paths inside the jar
	// do not matter.
	dest := filepath.Join(dir, filepath.Base(f.Name))
	if err := ioutils.EnsureDir(dir); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
