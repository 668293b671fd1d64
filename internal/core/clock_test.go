package core

import (
	"context"
	"sync"
	"time"

	"hyperwatch/internal/clients/metadata"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// fakeCatalog serves canned metadata and records the calls made to it.
type fakeCatalog struct {
	mu          sync.Mutex
	searches    []string
	results     map[string][]metadata.SearchResultItem
	searchErr   error
	details     map[string]*metadata.MediaDetail
	seasons     map[int][]metadata.Episode
	seasonErr   map[int]error
	seasonCalls []int
	// blockSeason, when set, holds Season calls until the channel is closed.
	blockSeason map[int]chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		results:     make(map[string][]metadata.SearchResultItem),
		details:     make(map[string]*metadata.MediaDetail),
		seasons:     make(map[int][]metadata.Episode),
		seasonErr:   make(map[int]error),
		blockSeason: make(map[int]chan struct{}),
	}
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]metadata.SearchResultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	items, ok := f.results[query]
	if !ok {
		return nil, metadata.ErrNoResults
	}
	return items, nil
}

func (f *fakeCatalog) Lookup(ctx context.Context, id string) (*metadata.MediaDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return nil, metadata.ErrNoResults
	}
	copied := *d
	return &copied, nil
}

func (f *fakeCatalog) Season(ctx context.Context, id string, season int) ([]metadata.Episode, error) {
	f.mu.Lock()
	f.seasonCalls = append(f.seasonCalls, season)
	block := f.blockSeason[season]
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.seasonErr[season]; err != nil {
		return nil, err
	}
	return f.seasons[season], nil
}

func (f *fakeCatalog) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func episodes(titles ...string) []metadata.Episode {
	eps := make([]metadata.Episode, len(titles))
	for i, title := range titles {
		eps[i] = metadata.Episode{Number: i + 1, Title: title, ReleaseDate: "2008-01-20"}
	}
	return eps
}
