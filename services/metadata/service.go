// Package metadata enriches film records with poster, directors and runtime
// from TMDB. Lookups go through two cache layers: a process-local table
// scoped to one aggregation run, and a persistent long-TTL layer shared with
// the showtime cache's backing store. A confirmed "no match" is cached as a
// negative result so it is not retried on every run.
package metadata

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"marquee/internal/cache"
	"marquee/models"
	"marquee/services/titles"
)

// FilmMeta is the enrichment payload for one film. A nil *FilmMeta means
// "looked up, no enrichment available".
type FilmMeta struct {
	Poster    *models.Poster `json:"poster,omitempty"`
	Directors []string       `json:"directors"`
	Duration  int            `json:"duration"`
}

// Service resolves film metadata by title. With no TMDB API key configured
// the service degrades to a no-op: every lookup returns nil immediately,
// without network or cache access.
type Service struct {
	tmdb  *tmdbClient // nil when no API key configured
	cache *cache.Cache
	log   *slog.Logger

	// local shadows the persistent cache for the duration of one
	// aggregation run; the orchestrator resets it via BeginRun.
	mu    sync.Mutex
	local map[string]*FilmMeta
}

// NewService builds the enricher. apiKey may be empty, which disables
// enrichment entirely. metaCache is the persistent layer (long TTL).
func NewService(apiKey string, metaCache *cache.Cache, httpc *http.Client) *Service {
	s := &Service{
		cache: metaCache,
		log:   slog.Default().With("component", "metadata"),
		local: make(map[string]*FilmMeta),
	}
	if apiKey != "" {
		s.tmdb = newTMDBClient(apiKey, httpc)
	}
	return s
}

// Enabled reports whether enrichment is configured at all.
func (s *Service) Enabled() bool { return s.tmdb != nil }

// BeginRun resets the process-local lookup table at the start of an
// aggregation run.
func (s *Service) BeginRun() {
	s.mu.Lock()
	s.local = make(map[string]*FilmMeta)
	s.mu.Unlock()
}

// GetMetadata returns enrichment for a film title, or nil when none is
// available. Lookup order: local table, persistent cache, live TMDB search.
// Errors from the live lookup are logged and reported as "no enrichment";
// they never propagate. Concurrent first-lookups for the same title may each
// hit TMDB once; both compute the same value, so the duplicate work is
// tolerated.
func (s *Service) GetMetadata(ctx context.Context, title string) *FilmMeta {
	if s.tmdb == nil {
		return nil
	}

	key := titles.Normalize(title)
	if key == "" {
		return nil
	}

	s.mu.Lock()
	meta, seen := s.local[key]
	s.mu.Unlock()
	if seen {
		return meta
	}

	cacheKey := "metadata:" + key
	if s.cache.Get(ctx, cacheKey, &meta) {
		s.remember(key, meta)
		return meta
	}

	meta, confirmed := s.lookup(ctx, title)
	s.remember(key, meta)
	if confirmed {
		// Only confirmed outcomes (a match, or a definitive "no match")
		// persist; transient lookup failures are retried next run.
		s.cache.Set(ctx, cacheKey, meta)
	}
	return meta
}

func (s *Service) remember(key string, meta *FilmMeta) {
	s.mu.Lock()
	s.local[key] = meta
	s.mu.Unlock()
}

// lookup performs the live TMDB search-then-details flow. A search with no
// results is a confirmed negative; errors yield nil without confirmation and
// are logged.
func (s *Service) lookup(ctx context.Context, title string) (meta *FilmMeta, confirmed bool) {
	match, err := s.tmdb.searchMovie(ctx, title)
	if err != nil {
		s.log.Warn("tmdb search failed, skipping enrichment", "title", title, "error", err)
		return nil, false
	}
	if match == nil {
		s.log.Debug("no tmdb match", "title", title)
		return nil, true
	}

	details, err := s.tmdb.movieDetails(ctx, match.ID)
	if err != nil {
		s.log.Warn("tmdb details failed, skipping enrichment", "title", title, "tmdb_id", match.ID, "error", err)
		return nil, false
	}

	meta = &FilmMeta{
		Directors: []string{},
		Duration:  details.Runtime,
	}
	if meta.Duration < 0 {
		meta.Duration = 0
	}
	if posterURL := tmdbPosterURL(details.PosterPath); posterURL != "" {
		meta.Poster = &models.Poster{URL: posterURL}
	}
	for _, member := range details.Credits.Crew {
		if member.Job == "Director" {
			meta.Directors = append(meta.Directors, member.Name)
		}
	}
	return meta, true
}

// Apply merges enrichment into a film, filling only the fields the chain
// left empty. Chain-provided values are never overwritten.
func (meta *FilmMeta) Apply(film *models.Film) {
	if meta == nil || film == nil {
		return
	}
	if film.Poster == nil && meta.Poster != nil {
		film.Poster = &models.Poster{URL: meta.Poster.URL}
	}
	if len(film.Directors) == 0 && len(meta.Directors) > 0 {
		film.Directors = append([]string(nil), meta.Directors...)
	}
	if film.Duration == 0 {
		film.Duration = meta.Duration
	}
}
