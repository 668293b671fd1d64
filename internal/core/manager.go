package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/mem"

	"hyperwatch/internal/clients/embed"
	"hyperwatch/internal/clients/metadata"
	"hyperwatch/internal/config"
	"hyperwatch/internal/utils"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type probeResult struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type SystemStatus struct {
	Metadata          bool                   `json:"metadata"`
	EpisodeSources    int                    `json:"episode_sources"`
	Sessions          int                    `json:"sessions"`
	Upstreams         map[string]probeResult `json:"upstreams"`
	MemoryUsedPercent float64                `json:"memory_used_percent,omitempty"`
	Uptime            string                 `json:"uptime"`
}

type Manager struct {
	config     *config.Config
	metadata   metadata.Client
	episodes   *metadata.SeasonChain
	sessions   *Sessions
	logger     *utils.Logger
	scheduler  *cron.Cron
	httpClient *http.Client
	pingers    map[string]pinger
	started    time.Time

	mu     sync.RWMutex
	probes map[string]probeResult
}

func NewManager(cfg *config.Config, logger *utils.Logger) *Manager {
	timeout := cfg.MetadataTimeout()
	omdb := metadata.NewOMDbClient(
		cfg.Metadata.OMDB.APIKey,
		cfg.Metadata.OMDB.BaseURL,
		timeout,
		cfg.Metadata.OMDB.RequestsPerSecond,
		cfg.Metadata.OMDB.Burst,
	)
	if cfg.Metadata.OMDB.APIKey == "" {
		logger.Warn("No OMDb API key configured; lookups will be rejected upstream")
	}

	// Setup episode sources based on config order
	var sources []metadata.EpisodeSource
	for _, provider := range cfg.Metadata.Providers {
		switch provider {
		case "omdb":
			sources = append(sources, omdb)
		case "tvmaze":
			sources = append(sources, metadata.NewTVmazeClient(cfg.Metadata.TVmaze.BaseURL, timeout))
		default:
			logger.Warn("Unsupported metadata provider:", provider)
		}
	}

	m := NewManagerWithClients(cfg, logger, omdb, metadata.NewSeasonChain(sources...))
	m.pingers["omdb"] = omdb
	return m
}

// NewManagerWithClients wires a manager around existing clients.
func NewManagerWithClients(cfg *config.Config, logger *utils.Logger, client metadata.Client, episodes *metadata.SeasonChain) *Manager {
	m := &Manager{
		config:     cfg,
		metadata:   client,
		episodes:   episodes,
		sessions:   NewSessions(),
		logger:     logger,
		scheduler:  cron.New(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		pingers:    make(map[string]pinger),
		started:    time.Now(),
		probes:     make(map[string]probeResult),
	}
	m.pingers["player"] = pingFunc(m.pingPlayer)
	return m
}

func (m *Manager) Config() *config.Config {
	return m.config
}

func (m *Manager) NewSuggester(sink func(Panel), logger *utils.Logger) *Suggester {
	return NewSuggester(m.metadata, SuggestOptions{
		MinLength: m.config.Search.MinQueryLength,
		Delay:     m.config.DebounceDelay(),
		Limit:     m.config.Search.SuggestionLimit,
	}, sink, logger)
}

// Suggest answers a one-off suggestion request without debouncing.
func (m *Manager) Suggest(ctx context.Context, rawQuery string) Panel {
	query := utils.NormalizeQuery(rawQuery)
	if utils.QueryLength(query) < m.config.Search.MinQueryLength {
		return Panel{}
	}
	items, err := m.metadata.Search(ctx, query)
	if err != nil || len(items) == 0 {
		if err != nil {
			m.logger.Debug("Suggestion search for", query, "returned nothing:", err)
		}
		return Panel{}
	}
	if limit := m.config.Search.SuggestionLimit; limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return Panel{Visible: true, Items: items}
}

func (m *Manager) Lookup(ctx context.Context, id string) (*metadata.MediaDetail, error) {
	return m.metadata.Lookup(ctx, id)
}

func (m *Manager) Season(ctx context.Context, id string, season int) ([]metadata.Episode, error) {
	return m.episodes.Season(ctx, id, season)
}

func (m *Manager) PlayerURL(target embed.PlayerTarget) string {
	return embed.Compose(m.config.Player.BaseURL, target)
}

// OpenWatch loads a title for the watch page and parks its session until the
// page's live connection claims it.
func (m *Manager) OpenWatch(ctx context.Context, id string) (string, WatchView) {
	session := NewWatchSession(m.metadata, m.episodes, m.config.Player.BaseURL, m.logger)
	view, err := session.Load(ctx, id)
	if err != nil {
		return "", view
	}
	return m.sessions.Register(session), view
}

func (m *Manager) ClaimWatch(sessionID string) (*WatchSession, error) {
	return m.sessions.Claim(sessionID)
}

func (m *Manager) ReleaseWatch(sessionID string) {
	m.sessions.Release(sessionID)
}

func (m *Manager) StartScheduler() {
	sweep := "@every " + config.Duration(m.config.Sessions.SweepInterval, time.Minute).String()
	probe := "@every " + config.Duration(m.config.Automation.ProbeInterval, 5*time.Minute).String()

	if _, err := m.scheduler.AddFunc(sweep, m.sweepSessions); err != nil {
		m.logger.Error("Failed to schedule session sweep:", err)
	}
	if _, err := m.scheduler.AddFunc(probe, m.probeUpstreams); err != nil {
		m.logger.Error("Failed to schedule upstream probe:", err)
	}
	m.scheduler.Start()
	m.logger.Info("Scheduler started. Performing initial upstream probe.")
	go m.probeUpstreams()
}

func (m *Manager) Stop() {
	if m.scheduler != nil {
		<-m.scheduler.Stop().Done()
	}
}

func (m *Manager) sweepSessions() {
	if removed := m.sessions.Sweep(m.config.SessionTTL()); removed > 0 {
		m.logger.Info(fmt.Sprintf("Swept %d unclaimed watch sessions.", removed))
	}
}

func (m *Manager) probeUpstreams() {
	for name, p := range m.pingers {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := p.Ping(ctx)
		cancel()

		result := probeResult{OK: err == nil, CheckedAt: time.Now()}
		if err != nil {
			result.Error = err.Error()
			m.logger.Warn("Upstream probe failed for", name, ":", err)
		}
		m.mu.Lock()
		m.probes[name] = result
		m.mu.Unlock()
	}
}

func (m *Manager) GetSystemStatus() SystemStatus {
	status := SystemStatus{
		Metadata:       m.metadata != nil,
		EpisodeSources: m.episodes.Len(),
		Sessions:       m.sessions.Len(),
		Upstreams:      make(map[string]probeResult),
		Uptime:         time.Since(m.started).Round(time.Second).String(),
	}

	m.mu.RLock()
	for name, result := range m.probes {
		status.Upstreams[name] = result
	}
	m.mu.RUnlock()

	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryUsedPercent = vm.UsedPercent
	} else {
		m.logger.Debug("Could not read memory stats:", err)
	}
	return status
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func (m *Manager) pingPlayer(ctx context.Context) error {
	policy, ok := embed.Installed()
	if !ok {
		return fmt.Errorf("no navigation policy installed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, policy.FrameOrigin, nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("embed provider responded with status: %d", resp.StatusCode)
	}
	return nil
}
