package download

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/errs"
	ioutils "github.com/synthlab/launcher/internal/io"
	"github.com/synthlab/launcher/internal/launcher"
	"github.com/synthlab/launcher/internal/task"
)

// Jar starts the client-jar pipeline: the resolved version's game
// archive is streamed to the versions store and verified against its
// expected hash. The jar path is the task's value and is recorded on the
// session state on success.
//
// Unlike the asset and library counters, this counter tracks bytes: the
// total is the archive size from the version metadata, published before
// the transfer starts.
func Jar(state *launcher.State) (*task.Task[string], *task.Counter) {
	counter := &task.Counter{}

	t := task.Start(context.Background(), func(ctx context.Context) (string, error) {
		version, err := state.Version()
		if err != nil {
			return "", err
		}
		settings := state.Settings()
		log := state.Logger()

		url := version.JarURL()
		want := version.JarSHA1()
		if url == "" {
			return "", errs.Newf(errs.KindPrecondition, "jar pipeline", "version %s has no client download", version.ID)
		}

		dest := filepath.Join(settings.VersionsDir(), version.ID, version.ID+".jar")

		size := uint64(version.Downloads.Client.Size)
		if size == 0 {
			size = 1
		}

		if ok, _ := ioutils.FileMatchesSHA1(dest, want); ok {
			counter.SetTotal(size)
			counter.Add(size)
			state.SetJarPath(dest)
			return dest, nil
		}

		err = withRetry(ctx, settings, log, "jar "+version.ID, func() error {
			// A fresh attempt restarts byte progress from zero.
			counter.Reset()
			counter.SetTotal(size)
			var last int64
			budget := size
			err := state.HTTP().DownloadFile(ctx, url, dest, func(written, total int64) {
				if written <= last {
					return
				}
				// The server may deliver more bytes than the metadata
				// advertised; never push the counter past its published
				// total.
				delta := uint64(written - last)
				last = written
				if delta > budget {
					delta = budget
				}
				if delta > 0 {
					counter.Add(delta)
					budget -= delta
				}
			})
			if err != nil {
				return err
			}
			if want != "" {
				if ok, err := ioutils.FileMatchesSHA1(dest, want); err != nil || !ok {
					return errs.Newf(errs.KindIO, "jar "+version.ID, "hash mismatch after download")
				}
			}
			return nil
		})
		if err != nil {
			return "", err
		}

		// The transfer may finish a hair under the advertised size when
		// the server compresses; pin the counter to done.
		if total, finished := counter.Snapshot(); finished < total {
			counter.Add(total - finished)
		}

		state.SetJarPath(dest)
		log.Info("jar complete", zap.String("path", dest))
		return dest, nil
	})

	return t, counter
}
