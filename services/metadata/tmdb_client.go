package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Minimal TMDB v3 client (title search and by-id details with credits)

const (
	tmdbDefaultBaseURL = "https://api.themoviedb.org/3"
	tmdbImageBaseURL   = "https://image.tmdb.org/t/p/w500"
)

type tmdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newTMDBClient(apiKey string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:  apiKey,
		baseURL: tmdbDefaultBaseURL,
		httpc:   httpc,
	}
}

type tmdbSearchResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbCrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type tmdbMovieDetails struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Runtime    int    `json:"runtime"`
	PosterPath string `json:"poster_path"`
	Credits    struct {
		Crew []tmdbCrewMember `json:"crew"`
	} `json:"credits"`
}

// searchMovie returns the top search result for title, or nil when TMDB has
// no match.
func (c *tmdbClient) searchMovie(ctx context.Context, title string) (*tmdbSearchResult, error) {
	endpoint := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(title))

	var decoded tmdbSearchResponse
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Results) == 0 {
		return nil, nil
	}
	return &decoded.Results[0], nil
}

// movieDetails fetches full details (runtime, crew) for a movie id.
func (c *tmdbClient) movieDetails(ctx context.Context, id int64) (*tmdbMovieDetails, error) {
	endpoint := fmt.Sprintf("%s/movie/%d?api_key=%s&append_to_response=credits",
		c.baseURL, id, url.QueryEscape(c.apiKey))

	var decoded tmdbMovieDetails
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

func (c *tmdbClient) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tmdb request failed: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

func tmdbPosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return tmdbImageBaseURL + posterPath
}
