// Package pathe is the chain adapter for the Pathé JSON API. The catalog
// only exposes URL slugs per metro zone, so matching works the other way
// around from Kinepolis: the full zone listing is pulled, slug-derived
// titles are fuzzy-matched against the watchlist, and showtimes are then
// fetched per film, per cinema, per date. Failures of individual
// cinema/date slices degrade to "no showtimes for that slice"; only the
// initial catalog fetch can fail the adapter.
package pathe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"marquee/config"
	"marquee/models"
	"marquee/services/metadata"
	"marquee/services/titles"
)

// fallbackTicketingBaseURL is used when a showtime carries no direct booking
// link; the film's public info page is the next best thing.
const fallbackTicketingBaseURL = "https://www.pathe.nl/nl/films/"

type enricher interface {
	GetMetadata(ctx context.Context, title string) *metadata.FilmMeta
	Enabled() bool
}

// Options bound the fan-out and locate the chain.
type Options struct {
	Zone          string
	Cinemas       []config.PatheCinema
	Days          int // forward-looking window of calendar dates
	FanoutWorkers int
	EnrichWorkers int
}

// Client queries the Pathé zone and showtime endpoints.
type Client struct {
	baseURL string
	httpc   *http.Client
	enrich  enricher
	opts    Options
	log     *slog.Logger

	loc *time.Location
	now func() time.Time
}

// NewClient builds the adapter. Source times are local to the chain's
// market; they are parsed in Europe/Amsterdam and normalized to UTC.
func NewClient(baseURL string, httpc *http.Client, enrich enricher, opts Options) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Days <= 0 {
		opts.Days = 10
	}
	if opts.FanoutWorkers <= 0 {
		opts.FanoutWorkers = 8
	}
	if opts.EnrichWorkers <= 0 {
		opts.EnrichWorkers = 4
	}
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		loc = time.UTC
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		enrich:  enrich,
		opts:    opts,
		log:     slog.Default().With("component", "pathe"),
		loc:     loc,
		now:     time.Now,
	}
}

type zoneFilm struct {
	Slug     string `json:"slug"`
	Bookable bool   `json:"isBookable"`
}

type zoneResponse struct {
	Shows []zoneFilm `json:"shows"`
}

type rawShowtime struct {
	Time         string `json:"time"`    // local "2006-01-02 15:04:05"
	EndTime      string `json:"endTime"` // may be empty
	TicketingURL string `json:"ticketingUrl"`
}

type showtimesResponse struct {
	Shows []rawShowtime `json:"shows"`
}

// matchedFilm is a catalog entry that fuzzy-matched the watchlist.
type matchedFilm struct {
	slug  string
	title string // presentable, derived from the slug
	meta  *metadata.FilmMeta
}

// Showtimes returns upcoming shows for every watchlist title currently
// bookable in the zone. Only the catalog fetch itself can return an error.
func (c *Client) Showtimes(ctx context.Context, watchlist []string) ([]models.Show, error) {
	if len(watchlist) == 0 {
		return []models.Show{}, nil
	}

	catalog, err := c.fetchZone(ctx)
	if err != nil {
		return nil, err
	}

	matched := c.matchCatalog(catalog, titles.NormalizeAll(watchlist))
	if len(matched) == 0 {
		return []models.Show{}, nil
	}

	c.enrichMatches(ctx, matched)
	return c.fanOut(ctx, matched), nil
}

func (c *Client) fetchZone(ctx context.Context) ([]zoneFilm, error) {
	endpoint := fmt.Sprintf("%s/zone/%s", c.baseURL, c.opts.Zone)

	var decoded zoneResponse
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, fmt.Errorf("fetch zone catalog: %w", err)
	}
	return decoded.Shows, nil
}

// matchCatalog keeps bookable catalog entries whose slug-derived title
// fuzzy-matches at least one watchlist title.
func (c *Client) matchCatalog(catalog []zoneFilm, normalizedWatchlist []string) []*matchedFilm {
	var matched []*matchedFilm
	seen := make(map[string]bool)
	for _, film := range catalog {
		if !film.Bookable || film.Slug == "" || seen[film.Slug] {
			continue
		}
		phrase := titles.SlugToTitle(film.Slug)
		if !titles.MatchesAny(titles.Normalize(phrase), normalizedWatchlist) {
			continue
		}
		seen[film.Slug] = true
		matched = append(matched, &matchedFilm{
			slug:  film.Slug,
			title: titles.TitleCase(phrase),
		})
	}
	return matched
}

// enrichMatches looks up metadata for every matched film in parallel.
// Skipped entirely when no TMDB credential is configured.
func (c *Client) enrichMatches(ctx context.Context, matched []*matchedFilm) {
	if c.enrich == nil || !c.enrich.Enabled() {
		return
	}
	p := pool.New().WithMaxGoroutines(c.opts.EnrichWorkers)
	for _, film := range matched {
		film := film
		p.Go(func() {
			film.meta = c.enrich.GetMetadata(ctx, film.title)
		})
	}
	p.Wait()
}

// fanOut queries every matched film x cinema x date slice on a bounded
// worker pool. A failing slice contributes zero showtimes and never aborts
// the others.
func (c *Client) fanOut(ctx context.Context, matched []*matchedFilm) []models.Show {
	today := c.now().In(c.loc)

	var (
		mu    sync.Mutex
		shows []models.Show
	)
	p := pool.New().WithMaxGoroutines(c.opts.FanoutWorkers)
	for _, film := range matched {
		for _, cinema := range c.opts.Cinemas {
			for day := 0; day < c.opts.Days; day++ {
				film, cinema := film, cinema
				date := today.AddDate(0, 0, day).Format("2006-01-02")
				p.Go(func() {
					slice, err := c.fetchSlice(ctx, film.slug, cinema.ID, date)
					if err != nil {
						c.log.Debug("showtime slice failed, skipping",
							"slug", film.slug, "cinema", cinema.ID, "date", date, "error", err)
						return
					}
					converted := c.convertSlice(film, cinema, slice)
					if len(converted) == 0 {
						return
					}
					mu.Lock()
					shows = append(shows, converted...)
					mu.Unlock()
				})
			}
		}
	}
	p.Wait()

	if shows == nil {
		shows = []models.Show{}
	}
	return shows
}

func (c *Client) fetchSlice(ctx context.Context, slug, cinemaID, date string) ([]rawShowtime, error) {
	endpoint := fmt.Sprintf("%s/show/%s/cinema/%s/date/%s", c.baseURL, slug, cinemaID, date)

	var decoded showtimesResponse
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}
	return decoded.Shows, nil
}

func (c *Client) convertSlice(film *matchedFilm, cinema config.PatheCinema, slice []rawShowtime) []models.Show {
	shows := make([]models.Show, 0, len(slice))
	for _, raw := range slice {
		start, err := c.parseLocal(raw.Time)
		if err != nil {
			c.log.Warn("dropping showtime with bad start time",
				"slug", film.slug, "time", raw.Time, "error", err)
			continue
		}

		unified := models.Film{
			Title:     film.title,
			Slug:      film.slug,
			Duration:  0,
			Directors: []string{},
		}
		film.meta.Apply(&unified)

		end := start
		if raw.EndTime != "" {
			if parsed, err := c.parseLocal(raw.EndTime); err == nil && !parsed.Before(start) {
				end = parsed
			}
		}
		if end.Equal(start) && unified.Duration > 0 {
			end = start.Add(time.Duration(unified.Duration) * time.Minute)
		}

		ticketingURL := raw.TicketingURL
		if ticketingURL == "" {
			ticketingURL = fallbackTicketingBaseURL + film.slug
		}

		shows = append(shows, models.Show{
			ID:           fmt.Sprintf("pathe:%s:%s:%d", film.slug, cinema.ID, start.Unix()),
			StartDate:    start,
			EndDate:      end,
			TicketingURL: ticketingURL,
			Film:         unified,
			Theater: models.Theater{
				Name:    cinema.Name,
				Address: &models.Address{City: cinema.City},
			},
			Chain: models.ChainPathe,
		})
	}
	return shows
}

// parseLocal parses a source-local time string and normalizes it to UTC.
func (c *Client) parseLocal(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, c.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("pathe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pathe request failed: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode pathe response: %w", err)
	}
	return nil
}
