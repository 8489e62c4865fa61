package download

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/synthlab/launcher/internal/errs"
	ioutils "github.com/synthlab/launcher/internal/io"
	"github.com/synthlab/launcher/internal/launcher"
	"github.com/synthlab/launcher/internal/task"
)

// Assets starts the asset pipeline: every object in the resolved asset
// index is fetched into the content-addressed objects store, skipping
// objects whose file already matches its hash.
//
// The counter counts objects; its total is the index size, published
// before any download begins.
func Assets(state *launcher.State) (*task.Task[task.Unit], *task.Counter) {
	counter := &task.Counter{}

	t := task.Start(context.Background(), func(ctx context.Context) (task.Unit, error) {
		index, err := state.AssetIndex()
		if err != nil {
			return task.Unit{}, err
		}
		settings := state.Settings()
		log := state.Logger()

		counter.SetTotal(uint64(len(index.Objects)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(settings.MaxConcurrentDownloads)

		for name, obj := range index.Objects {
			name, obj := name, obj
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				if !ioutils.ValidSHA1(obj.Hash) {
					return errs.Newf(errs.KindParse, "asset "+name, "malformed object hash %q", obj.Hash)
				}
				prefix := obj.Hash[:2]
				dest := filepath.Join(settings.AssetsDir(), "objects", prefix, obj.Hash)
				if ok, _ := ioutils.FileMatchesSHA1(dest, obj.Hash); ok {
					counter.Add(1)
					return nil
				}

				url := settings.AssetBaseURL + "/" + prefix + "/" + obj.Hash
				err := withRetry(gctx, settings, log, "asset "+name, func() error {
					data, err := state.HTTP().DownloadBytes(gctx, url)
					if err != nil {
						return err
					}
					if ioutils.SHA1Bytes(data) != obj.Hash {
						return errs.Newf(errs.KindIO, "asset "+name, "hash mismatch")
					}
					if err := ioutils.WriteFile(dest, data); err != nil {
						return errs.New(errs.KindIO, "asset "+name, err)
					}
					return nil
				})
				if err != nil {
					return err
				}
				counter.Add(1)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return task.Unit{}, err
		}
		log.Info("assets complete", zap.Int("objects", len(index.Objects)))
		return task.Unit{}, nil
	})

	return t, counter
}
