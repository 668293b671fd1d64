package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port         int    `yaml:"port"`
		DataPath     string `yaml:"data_path"`
		SiteName     string `yaml:"site_name"`
		Debug        bool   `yaml:"debug"`
		TemplatesDir string `yaml:"templates_dir"` // Optional: serve templates from disk and reload on change
	} `yaml:"app"`

	Metadata struct {
		// Episode sources, tried in order. Search and detail lookups always use OMDb.
		Providers []string `yaml:"providers"`
		Timeout   string   `yaml:"timeout"`
		OMDB      struct {
			APIKey            string  `yaml:"api_key"`
			BaseURL           string  `yaml:"base_url"`
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"omdb"`
		TVmaze struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"tvmaze"`
	} `yaml:"metadata"`

	Player struct {
		BaseURL        string   `yaml:"base_url"`
		Sandbox        []string `yaml:"sandbox"`
		SuppressPopups bool     `yaml:"suppress_popups"`
	} `yaml:"player"`

	Search struct {
		MinQueryLength  int    `yaml:"min_query_length"`
		Debounce        string `yaml:"debounce"`
		SuggestionLimit int    `yaml:"suggestion_limit"`
		Stagger         string `yaml:"stagger"`
	} `yaml:"search"`

	Sessions struct {
		TTL           string `yaml:"ttl"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"sessions"`

	Automation struct {
		ProbeInterval string `yaml:"probe_interval"`
	} `yaml:"automation"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.App.Port = 8081
	cfg.App.DataPath = "./data"
	cfg.App.SiteName = "HyperWatch"
	cfg.App.Debug = false

	cfg.Metadata.Providers = []string{"omdb", "tvmaze"}
	cfg.Metadata.Timeout = "10s"
	cfg.Metadata.OMDB.BaseURL = "https://www.omdbapi.com"
	cfg.Metadata.OMDB.RequestsPerSecond = 5
	cfg.Metadata.OMDB.Burst = 10
	cfg.Metadata.TVmaze.BaseURL = "https://api.tvmaze.com"

	cfg.Player.BaseURL = "https://vidsrc.cc/v2/embed"
	cfg.Player.Sandbox = []string{
		"allow-forms",
		"allow-pointer-lock",
		"allow-same-origin",
		"allow-scripts",
		"allow-top-navigation-by-user-activation",
	}
	cfg.Player.SuppressPopups = true

	cfg.Search.MinQueryLength = 3
	cfg.Search.Debounce = "300ms"
	cfg.Search.SuggestionLimit = 5
	cfg.Search.Stagger = "50ms"

	cfg.Sessions.TTL = "10m"
	cfg.Sessions.SweepInterval = "1m"

	cfg.Automation.ProbeInterval = "5m"
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("OMDB_API_KEY"); v != "" {
		cfg.Metadata.OMDB.APIKey = v
	}
	if v := os.Getenv("HYPERWATCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	if v := os.Getenv("HYPERWATCH_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.App.Debug = debug
		}
	}
	if v := os.Getenv("HYPERWATCH_PLAYER_BASE_URL"); v != "" {
		cfg.Player.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("HYPERWATCH_TEMPLATES_DIR"); v != "" {
		cfg.App.TemplatesDir = v
	}
}

// Duration parses a config duration string, returning fallback when it is empty or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func (c *Config) MetadataTimeout() time.Duration {
	return Duration(c.Metadata.Timeout, 10*time.Second)
}

func (c *Config) DebounceDelay() time.Duration {
	return Duration(c.Search.Debounce, 300*time.Millisecond)
}

func (c *Config) StaggerStep() time.Duration {
	return Duration(c.Search.Stagger, 50*time.Millisecond)
}

func (c *Config) SessionTTL() time.Duration {
	return Duration(c.Sessions.TTL, 10*time.Minute)
}
