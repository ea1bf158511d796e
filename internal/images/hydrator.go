package images

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Hydrator looks up images for POIs on a bounded worker pool.
// Lookups are best-effort: any failure yields an empty list.
type Hydrator struct {
	searcher Searcher
	perPOI   int
	workers  int
	logger   *zap.Logger
}

func NewHydrator(searcher Searcher, perPOI, workers int, logger *zap.Logger) *Hydrator {
	if workers < 1 {
		workers = 1
	}
	return &Hydrator{searcher: searcher, perPOI: perPOI, workers: workers, logger: logger}
}

// Lookup returns image URLs for one POI name, never nil.
func (h *Hydrator) Lookup(ctx context.Context, name string) []string {
	urls, err := h.searcher.SearchImages(ctx, name, h.perPOI)
	if err != nil {
		if ctx.Err() == nil {
			h.logger.Warn("image lookup failed", zap.String("poi", name), zap.Error(err))
		}
		return []string{}
	}
	if urls == nil {
		return []string{}
	}
	return urls
}

// Hydrate runs Lookup for every name and reports each result through done
// as it completes. done may be called from several goroutines at once.
// It returns ctx's error if the context ends before all lookups finish.
func (h *Hydrator) Hydrate(ctx context.Context, names []string, done func(name string, urls []string)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for _, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			urls := h.Lookup(gctx, name)
			if err := gctx.Err(); err != nil {
				return err
			}
			done(name, urls)
			return nil
		})
	}
	return g.Wait()
}
