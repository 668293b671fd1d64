package metadata

import (
	"context"
	"errors"
)

// ErrNoResults is returned when the provider answers with a negative response
// (OMDb Response != "True"). Transport and decode failures are wrapped errors instead.
var ErrNoResults = errors.New("no results")

// Client is the interface for the metadata provider backing search and detail pages.
type Client interface {
	Search(ctx context.Context, query string) ([]SearchResultItem, error)
	Lookup(ctx context.Context, id string) (*MediaDetail, error)
	EpisodeSource
}

// EpisodeSource lists the episodes of one season of a series.
type EpisodeSource interface {
	Season(ctx context.Context, id string, season int) ([]Episode, error)
}

type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
	KindGame   MediaKind = "game"
)

// SearchResultItem is one entry of a search response.
type SearchResultItem struct {
	ID        string `json:"id"` // IMDb id, e.g. tt0903747
	Title     string `json:"title"`
	Year      string `json:"year"`
	Type      string `json:"type"`
	PosterURL string `json:"poster_url,omitempty"`
}

// Playable reports whether the item can be listed in the results grid.
func (i SearchResultItem) Playable() bool {
	return i.PosterURL != "" && MediaKind(i.Type) != KindGame
}

// MediaDetail is a standardized struct for a detail lookup.
type MediaDetail struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Year         string    `json:"year"`
	Runtime      string    `json:"runtime"`
	Genre        string    `json:"genre"`
	Rating       string    `json:"rating"`
	Plot         string    `json:"plot"`
	PosterURL    string    `json:"poster_url,omitempty"`
	Kind         MediaKind `json:"kind"`
	TotalSeasons int       `json:"total_seasons,omitempty"`
}

func (d *MediaDetail) IsSeries() bool {
	return d.Kind == KindSeries
}

type Episode struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}
