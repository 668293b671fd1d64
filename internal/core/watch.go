package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hyperwatch/internal/clients/embed"
	"hyperwatch/internal/clients/metadata"
	"hyperwatch/internal/utils"
)

var (
	ErrNotLoaded      = errors.New("title not loaded")
	ErrNotSeries      = errors.New("title is not a series")
	ErrInvalidSeason  = errors.New("season out of range")
	ErrUnknownEpisode = errors.New("episode not in the current season")
)

const (
	EpisodesFailure = "Could not load episode details."
	TitleNotFound   = "This title could not be found."
	TitleFailure    = "Something went wrong loading this title. Please try again."
)

type WatchState string

const (
	StateLoading WatchState = "loading"
	StateLoaded  WatchState = "loaded"
	StateFailed  WatchState = "failed"
)

type DetailSource interface {
	Lookup(ctx context.Context, id string) (*metadata.MediaDetail, error)
}

type EpisodeView struct {
	metadata.Episode
	Active bool `json:"active"`
}

// WatchView is everything the watch page renders for the current state.
type WatchView struct {
	State           WatchState            `json:"state"`
	Detail          *metadata.MediaDetail `json:"detail,omitempty"`
	Message         string                `json:"message,omitempty"`
	Seasons         []int                 `json:"seasons,omitempty"`
	Season          int                   `json:"season,omitempty"`
	Episodes        []EpisodeView         `json:"episodes"`
	EpisodesLoading bool                  `json:"episodes_loading,omitempty"`
	EpisodesError   string                `json:"episodes_error,omitempty"`
	Target          embed.PlayerTarget    `json:"target"`
	PlayerURL       string                `json:"player_url,omitempty"`
	ScrollToPlayer  bool                  `json:"scroll_to_player,omitempty"`
}

func (v WatchView) IsSeries() bool {
	return v.Detail != nil && v.Detail.IsSeries()
}

// WatchSession is the controller of one watch page:
//
//	Loading -> Loaded(movie) | Loaded(series) | Failed
//
// For series, SelectSeason swaps the episode list and SelectEpisode moves the
// player target. The active marker always follows the player target.
type WatchSession struct {
	details    DetailSource
	episodes   metadata.EpisodeSource
	playerBase string
	logger     *utils.Logger

	mu          sync.Mutex
	state       WatchState
	detail      *metadata.MediaDetail
	message     string
	season      int
	list        []metadata.Episode
	listLoading bool
	listErr     string
	seasonSeq   uint64
	target      embed.PlayerTarget
}

func NewWatchSession(details DetailSource, episodes metadata.EpisodeSource, playerBase string, logger *utils.Logger) *WatchSession {
	return &WatchSession{
		details:    details,
		episodes:   episodes,
		playerBase: playerBase,
		logger:     logger,
		state:      StateLoading,
	}
}

// Load fetches the title. A series also gets season 1 fetched and S1E1 targeted;
// a failure there only shows up inline in the view.
func (w *WatchSession) Load(ctx context.Context, id string) (WatchView, error) {
	w.mu.Lock()
	w.state = StateLoading
	w.mu.Unlock()

	detail, err := w.details.Lookup(ctx, id)
	if err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.state = StateFailed
		w.message = TitleFailure
		if errors.Is(err, metadata.ErrNoResults) {
			w.message = TitleNotFound
		} else {
			w.logger.Error("Error loading media:", err)
		}
		return w.viewLocked(), err
	}
	if detail.ID == "" {
		detail.ID = id
	}

	w.mu.Lock()
	w.state = StateLoaded
	w.detail = detail
	if !detail.IsSeries() {
		w.target = embed.MovieTarget(detail.ID)
		defer w.mu.Unlock()
		return w.viewLocked(), nil
	}
	w.target = embed.EpisodeTarget(detail.ID, 1, 1)
	w.mu.Unlock()

	w.loadSeason(ctx, 1)
	return w.Snapshot(), nil
}

// SelectSeason replaces the episode list with season n. The player target is untouched.
func (w *WatchSession) SelectSeason(ctx context.Context, n int) (WatchView, error) {
	w.mu.Lock()
	if err := w.requireSeriesLocked(); err != nil {
		w.mu.Unlock()
		return WatchView{}, err
	}
	if n < 1 || n > w.detail.TotalSeasons {
		w.mu.Unlock()
		return WatchView{}, fmt.Errorf("season %d of %d: %w", n, w.detail.TotalSeasons, ErrInvalidSeason)
	}
	w.mu.Unlock()

	w.loadSeason(ctx, n)
	return w.Snapshot(), nil
}

// SelectEpisode points the player at episode ep of the selected season and moves the active marker to it.
func (w *WatchSession) SelectEpisode(ep int) (WatchView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireSeriesLocked(); err != nil {
		return WatchView{}, err
	}
	found := false
	for _, e := range w.list {
		if e.Number == ep {
			found = true
			break
		}
	}
	if !found {
		return WatchView{}, fmt.Errorf("S%02dE%02d: %w", w.season, ep, ErrUnknownEpisode)
	}

	w.target = embed.EpisodeTarget(w.detail.ID, w.season, ep)
	view := w.viewLocked()
	view.ScrollToPlayer = true
	return view, nil
}

func (w *WatchSession) Snapshot() WatchView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

func (w *WatchSession) loadSeason(ctx context.Context, n int) {
	w.mu.Lock()
	w.seasonSeq++
	seq := w.seasonSeq
	w.season = n
	w.list = nil
	w.listErr = ""
	w.listLoading = true
	id := w.detail.ID
	w.mu.Unlock()

	episodes, err := w.episodes.Season(ctx, id, n)

	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.seasonSeq {
		// a newer selection owns the list now
		return
	}
	w.listLoading = false
	if err != nil {
		w.logger.Error("Error loading season", n, "of", id, ":", err)
		w.listErr = EpisodesFailure
		return
	}
	w.list = episodes
}

func (w *WatchSession) requireSeriesLocked() error {
	if w.state != StateLoaded {
		return ErrNotLoaded
	}
	if !w.detail.IsSeries() {
		return ErrNotSeries
	}
	return nil
}

func (w *WatchSession) viewLocked() WatchView {
	view := WatchView{
		State:           w.state,
		Detail:          w.detail,
		Message:         w.message,
		Season:          w.season,
		EpisodesLoading: w.listLoading,
		EpisodesError:   w.listErr,
		Target:          w.target,
	}
	if !w.target.IsZero() {
		view.PlayerURL = embed.Compose(w.playerBase, w.target)
	}
	if w.detail != nil && w.detail.IsSeries() {
		view.Seasons = make([]int, w.detail.TotalSeasons)
		for i := range view.Seasons {
			view.Seasons[i] = i + 1
		}
	}

	view.Episodes = make([]EpisodeView, len(w.list))
	marked := false
	for i, ep := range w.list {
		active := !marked && w.season == w.target.Season && ep.Number == w.target.Episode
		if active {
			marked = true
		}
		view.Episodes[i] = EpisodeView{Episode: ep, Active: active}
	}
	return view
}
