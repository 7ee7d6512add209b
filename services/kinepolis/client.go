// Package kinepolis is the chain adapter for the Kinepolis GraphQL catalog.
// Watchlist titles are resolved to production ids with one exact-match
// filtered query (the catalog supports server-side title filtering, so no
// fuzzy matching happens here), then showtimes are fetched in fixed-size id
// batches in parallel. Unlike the Pathé adapter, any failed query fails the
// whole adapter; the orchestrator isolates that failure.
package kinepolis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"marquee/models"
	"marquee/services/metadata"
)

// showtimeBatchSize keeps each showtimes query under the upstream's
// per-query result limit while still covering several films per request.
const showtimeBatchSize = 5

// enricher is the metadata lookup the adapter uses to fill fields the
// catalog left empty.
type enricher interface {
	GetMetadata(ctx context.Context, title string) *metadata.FilmMeta
}

// Client queries the Kinepolis GraphQL endpoint.
type Client struct {
	endpoint string
	httpc    *http.Client
	enrich   enricher
	log      *slog.Logger

	now func() time.Time
}

// NewClient builds the adapter. enrich may be a disabled metadata service;
// enrichment then simply contributes nothing.
func NewClient(endpoint string, httpc *http.Client, enrich enricher) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint: endpoint,
		httpc:    httpc,
		enrich:   enrich,
		log:      slog.Default().With("component", "kinepolis"),
		now:      time.Now,
	}
}

// graphqlRequest is serialized once per query; titles and ids travel as
// GraphQL variables, never interpolated into the query document.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

const productionsQuery = `
query Productions($titles: [String!]!) {
  productions(filter: { titles: $titles }) {
    id
    title
  }
}`

const showtimesQuery = `
query Showtimes($ids: [ID!]!, $from: String!) {
  showtimes(filter: { productionIds: $ids, startsAfter: $from }) {
    id
    startsAt
    endsAt
    ticketingUrl
    production {
      id
      title
      slug
      posterUrl
      durationMinutes
      directors
    }
    cinema {
      name
      city
    }
  }
}`

type production struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type productionsResponse struct {
	Data struct {
		Productions []production `json:"productions"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type showtime struct {
	ID           string `json:"id"`
	StartsAt     string `json:"startsAt"`
	EndsAt       string `json:"endsAt"`
	TicketingURL string `json:"ticketingUrl"`
	Production   struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		Slug            string   `json:"slug"`
		PosterURL       string   `json:"posterUrl"`
		DurationMinutes int      `json:"durationMinutes"`
		Directors       []string `json:"directors"`
	} `json:"production"`
	Cinema struct {
		Name string `json:"name"`
		City string `json:"city"`
	} `json:"cinema"`
}

type showtimesResponse struct {
	Data struct {
		Showtimes []showtime `json:"showtimes"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// Showtimes returns upcoming shows for every watchlist title the catalog
// knows. Zero resolved titles is an empty result, not an error; any query
// failure is.
func (c *Client) Showtimes(ctx context.Context, watchlist []string) ([]models.Show, error) {
	if len(watchlist) == 0 {
		return []models.Show{}, nil
	}

	productions, err := c.resolveProductions(ctx, watchlist)
	if err != nil {
		return nil, err
	}
	if len(productions) == 0 {
		return []models.Show{}, nil
	}

	ids := make([]string, len(productions))
	for i, p := range productions {
		ids[i] = p.ID
	}
	from := c.now().UTC().Format(time.RFC3339)

	var (
		mu   sync.Mutex
		raw  []showtime
		errs []error
	)
	p := pool.New()
	for start := 0; start < len(ids); start += showtimeBatchSize {
		end := start + showtimeBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		p.Go(func() {
			shows, err := c.fetchShowtimes(ctx, batch, from)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			raw = append(raw, shows...)
		})
	}
	p.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}

	return c.convert(ctx, raw), nil
}

func (c *Client) resolveProductions(ctx context.Context, watchlist []string) ([]production, error) {
	var decoded productionsResponse
	err := c.query(ctx, graphqlRequest{
		Query:     productionsQuery,
		Variables: map[string]any{"titles": watchlist},
	}, &decoded)
	if err != nil {
		return nil, fmt.Errorf("resolve productions: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("resolve productions: upstream error: %s", decoded.Errors[0].Message)
	}
	return decoded.Data.Productions, nil
}

func (c *Client) fetchShowtimes(ctx context.Context, ids []string, from string) ([]showtime, error) {
	var decoded showtimesResponse
	err := c.query(ctx, graphqlRequest{
		Query:     showtimesQuery,
		Variables: map[string]any{"ids": ids, "from": from},
	}, &decoded)
	if err != nil {
		return nil, fmt.Errorf("fetch showtimes: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("fetch showtimes: upstream error: %s", decoded.Errors[0].Message)
	}
	return decoded.Data.Showtimes, nil
}

func (c *Client) query(ctx context.Context, gql graphqlRequest, v any) error {
	body, err := json.Marshal(gql)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("graphql request failed: %s - %s", resp.Status, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	return nil
}

// convert maps raw showtimes to the unified Show shape, enriching only the
// fields the catalog left empty. Shows with unparseable times are dropped.
func (c *Client) convert(ctx context.Context, raw []showtime) []models.Show {
	metaByTitle := make(map[string]*metadata.FilmMeta)
	shows := make([]models.Show, 0, len(raw))

	for _, st := range raw {
		start, err := time.Parse(time.RFC3339, st.StartsAt)
		if err != nil {
			c.log.Warn("dropping show with bad start time", "id", st.ID, "startsAt", st.StartsAt, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, st.EndsAt)
		if err != nil || end.Before(start) {
			end = start
		}

		film := models.Film{
			Title:     st.Production.Title,
			Slug:      st.Production.Slug,
			Duration:  st.Production.DurationMinutes,
			Directors: append([]string(nil), st.Production.Directors...),
		}
		if film.Directors == nil {
			film.Directors = []string{}
		}
		if film.Duration < 0 {
			film.Duration = 0
		}
		if st.Production.PosterURL != "" {
			film.Poster = &models.Poster{URL: st.Production.PosterURL}
		}

		if c.enrich != nil && (film.Poster == nil || len(film.Directors) == 0 || film.Duration == 0) {
			meta, seen := metaByTitle[film.Title]
			if !seen {
				meta = c.enrich.GetMetadata(ctx, film.Title)
				metaByTitle[film.Title] = meta
			}
			meta.Apply(&film)
		}

		shows = append(shows, models.Show{
			ID:           "kinepolis:" + st.ID,
			StartDate:    start.UTC(),
			EndDate:      end.UTC(),
			TicketingURL: st.TicketingURL,
			Film:         film,
			Theater: models.Theater{
				Name:    st.Cinema.Name,
				Address: &models.Address{City: st.Cinema.City},
			},
			Chain: models.ChainKinepolis,
		})
	}
	return shows
}
