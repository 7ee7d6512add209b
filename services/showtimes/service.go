// Package showtimes is the aggregation orchestrator: cache lookup, then on
// miss fetch the watchlist, fan out to both chain adapters concurrently with
// independent failure isolation, merge, store, return. The only way the
// operation itself fails is when the list cannot be fetched at all; a chain
// that errors simply contributes no shows.
package showtimes

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"marquee/internal/cache"
	"marquee/models"
)

type listSource interface {
	FetchList(ctx context.Context, listPath string) ([]string, error)
}

type chainAdapter interface {
	Showtimes(ctx context.Context, watchlist []string) ([]models.Show, error)
}

type runScoped interface {
	BeginRun()
}

// namedAdapter keeps merge order deterministic across runs.
type namedAdapter struct {
	name    models.Chain
	adapter chainAdapter
}

// Service is the top-level entry point of the aggregation pipeline.
type Service struct {
	cache  *cache.Cache
	lists  listSource
	chains []namedAdapter
	enrich runScoped // reset per aggregation run; may be nil
	log    *slog.Logger
}

// NewService wires the orchestrator. showCache carries the short showtime
// TTL; enrich may be nil when enrichment is disabled.
func NewService(showCache *cache.Cache, lists listSource, kinepolis, pathe chainAdapter, enrich runScoped) *Service {
	return &Service{
		cache: showCache,
		lists: lists,
		chains: []namedAdapter{
			{name: models.ChainKinepolis, adapter: kinepolis},
			{name: models.ChainPathe, adapter: pathe},
		},
		enrich: enrich,
		log:    slog.Default().With("component", "showtimes"),
	}
}

// Get returns the aggregated showtimes for a list path, serving from cache
// when a valid entry exists. Both chains failing yields an empty result,
// not an error.
func (s *Service) Get(ctx context.Context, listPath string) (models.ShowtimesEnvelope, error) {
	key := models.ShowtimesCacheKey(listPath)

	var cached []models.Show
	if s.cache.Get(ctx, key, &cached) {
		s.log.Debug("serving showtimes from cache", "list", listPath, "shows", len(cached))
		return models.NewShowtimesEnvelope(cached), nil
	}

	watchlist, err := s.lists.FetchList(ctx, listPath)
	if err != nil {
		return models.ShowtimesEnvelope{}, err
	}
	s.log.Info("aggregating showtimes", "list", listPath, "titles", len(watchlist))

	if s.enrich != nil {
		s.enrich.BeginRun()
	}

	started := time.Now()
	results := make([][]models.Show, len(s.chains))
	p := pool.New()
	for i, ch := range s.chains {
		i, ch := i, ch
		p.Go(func() {
			shows, err := ch.adapter.Showtimes(ctx, watchlist)
			if err != nil {
				s.log.Warn("chain fetch failed, omitting its shows",
					"chain", ch.name, "list", listPath, "error", err)
				return
			}
			results[i] = shows
		})
	}
	p.Wait()

	merged := make([]models.Show, 0)
	for _, shows := range results {
		merged = append(merged, shows...)
	}
	s.log.Info("aggregation complete",
		"list", listPath, "shows", len(merged), "duration", time.Since(started))

	s.cache.Set(ctx, key, merged)
	return models.NewShowtimesEnvelope(merged), nil
}
