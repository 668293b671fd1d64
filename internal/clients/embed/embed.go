// Package embed composes player URLs for the third-party video embed provider
// and owns the navigation policy applied to the frame that hosts it.
package embed

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// PlayerTarget identifies what the embedded player should show.
// Season and Episode are only meaningful for series.
type PlayerTarget struct {
	Kind    Kind   `json:"kind"`
	ID      string `json:"id"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

func MovieTarget(id string) PlayerTarget {
	return PlayerTarget{Kind: KindMovie, ID: id}
}

func EpisodeTarget(id string, season, episode int) PlayerTarget {
	return PlayerTarget{Kind: KindSeries, ID: id, Season: season, Episode: episode}
}

func (t PlayerTarget) IsZero() bool {
	return t.ID == ""
}

// Compose builds the embed URL for t:
//
//	movie  -> {base}/movie/{id}
//	series -> {base}/tv/{id}/{season}/{episode}
func Compose(base string, t PlayerTarget) string {
	base = strings.TrimRight(base, "/")
	if t.Kind == KindSeries {
		return fmt.Sprintf("%s/tv/%s/%d/%d", base, t.ID, t.Season, t.Episode)
	}
	return fmt.Sprintf("%s/movie/%s", base, t.ID)
}

// ParseKind maps the provider's type names onto player kinds.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "movie":
		return KindMovie, nil
	case "series", "tv":
		return KindSeries, nil
	}
	return "", fmt.Errorf("unknown player kind %q", s)
}
