package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"hyperwatch/internal/clients/metadata"
	"hyperwatch/internal/utils"
)

type Searcher interface {
	Search(ctx context.Context, query string) ([]metadata.SearchResultItem, error)
}

// Panel is the state of the suggestion dropdown under the search box.
type Panel struct {
	Visible bool                        `json:"visible"`
	Items   []metadata.SearchResultItem `json:"items"`
}

type SuggestOptions struct {
	MinLength int
	Delay     time.Duration
	Limit     int
	AfterFunc AfterFunc
}

func (o *SuggestOptions) applyDefaults() {
	if o.MinLength <= 0 {
		o.MinLength = 3
	}
	if o.Delay <= 0 {
		o.Delay = 300 * time.Millisecond
	}
	if o.Limit <= 0 {
		o.Limit = 5
	}
}

// Suggester drives the live preview of one search field. Keystrokes are
// debounced; only the query scheduled by the latest keystroke may update the panel.
type Suggester struct {
	searcher  Searcher
	opts      SuggestOptions
	debouncer *Debouncer
	sink      func(Panel)
	logger    *utils.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	seq    uint64
	closed bool
}

// NewSuggester reports every panel change to sink. Calls to sink are serialized.
func NewSuggester(searcher Searcher, opts SuggestOptions, sink func(Panel), logger *utils.Logger) *Suggester {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Suggester{
		searcher:  searcher,
		opts:      opts,
		debouncer: NewDebouncer(NewScheduler(opts.AfterFunc), opts.Delay),
		sink:      sink,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Suggester) Input(text string) {
	query := utils.NormalizeQuery(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.seq++
	if utils.QueryLength(query) < s.opts.MinLength {
		s.debouncer.Cancel()
		s.sink(Panel{})
		return
	}

	seq := s.seq
	s.debouncer.Trigger(func() { s.run(seq, query) })
}

// Dismiss hides the panel, e.g. after a click outside the search control.
func (s *Suggester) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sink(Panel{})
}

func (s *Suggester) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.cancel()
}

func (s *Suggester) current(seq uint64) bool {
	return !s.closed && seq == s.seq
}

func (s *Suggester) run(seq uint64, query string) {
	s.mu.Lock()
	live := s.current(seq)
	s.mu.Unlock()
	if !live {
		return
	}

	items, err := s.searcher.Search(s.ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(seq) {
		s.logger.Debug("Dropping stale suggestions for", query)
		return
	}

	if err != nil {
		if errors.Is(err, metadata.ErrNoResults) {
			s.logger.Debug("No suggestions for", query)
		} else {
			s.logger.Error("Suggestion search failed:", err)
		}
		s.sink(Panel{})
		return
	}
	if len(items) == 0 {
		s.sink(Panel{})
		return
	}
	if len(items) > s.opts.Limit {
		items = items[:s.opts.Limit]
	}
	s.sink(Panel{Visible: true, Items: items})
}
