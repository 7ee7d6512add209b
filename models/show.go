package models

import (
	"fmt"
	"time"
)

// Chain identifies which cinema-chain adapter produced a Show. It is a
// discriminator only: shows from both chains coexist in one result and are
// never deduplicated across chains.
type Chain string

const (
	ChainKinepolis Chain = "kinepolis"
	ChainPathe     Chain = "pathe"
)

// ShowtimesSchemaVersion is baked into the cache key so that changing the
// Show shape invalidates old cache entries without an explicit migration.
// The response envelope itself stays stable across versions.
const ShowtimesSchemaVersion = 3

// ShowtimesCacheKey builds the cache key for an aggregated list result.
func ShowtimesCacheKey(listPath string) string {
	return fmt.Sprintf("showtimes:v%d:%s", ShowtimesSchemaVersion, listPath)
}

// Poster is a film poster image.
type Poster struct {
	URL string `json:"url"`
}

// Film is the film half of a showtime record.
type Film struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Poster    *Poster  `json:"poster,omitempty"`
	Duration  int      `json:"duration"`  // minutes, 0 when unknown
	Directors []string `json:"directors"` // empty when unknown
}

// Address holds the theater location fields we expose.
type Address struct {
	City string `json:"city"`
}

// Theater is the cinema location a show plays at.
type Theater struct {
	Name    string   `json:"name"`
	Address *Address `json:"address,omitempty"`
}

// Show is the unified showtime record, the output unit of the aggregation
// pipeline. ID is unique per (chain, film, cinema, start time). Times are
// UTC-normalized from source-local times.
type Show struct {
	ID           string    `json:"id"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	TicketingURL string    `json:"ticketingUrl"`
	Film         Film      `json:"film"`
	Theater      Theater   `json:"theater"`
	Chain        Chain     `json:"chain"`
}

// ShowtimesEnvelope is the wire response for the showtimes endpoint:
// { data: { showtimes: { data: [...] } } }. Consumers depend on this shape
// staying stable even when the cache key version changes.
type ShowtimesEnvelope struct {
	Data struct {
		Showtimes struct {
			Data []Show `json:"data"`
		} `json:"showtimes"`
	} `json:"data"`
}

// NewShowtimesEnvelope wraps a merged show list in the response envelope.
// A nil slice is normalized to an empty array so the JSON is always a list.
func NewShowtimesEnvelope(shows []Show) ShowtimesEnvelope {
	if shows == nil {
		shows = []Show{}
	}
	var env ShowtimesEnvelope
	env.Data.Showtimes.Data = shows
	return env
}
