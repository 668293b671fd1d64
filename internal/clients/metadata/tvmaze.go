package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TVmazeClient is a fallback episode source. TVmaze resolves shows by IMDb id,
// so it can stand in when OMDb has no season data.
type TVmazeClient struct {
	baseURL    string
	httpClient *http.Client
}

type tvmazeShow struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tvmazeEpisode struct {
	ID      int    `json:"id"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Airdate string `json:"airdate"`
}

func NewTVmazeClient(baseURL string, timeout time.Duration) *TVmazeClient {
	return &TVmazeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (t *TVmazeClient) Season(ctx context.Context, imdbID string, season int) ([]Episode, error) {
	var show tvmazeShow
	lookupURL := fmt.Sprintf("%s/lookup/shows?imdb=%s", t.baseURL, url.QueryEscape(imdbID))
	if err := t.sendRequest(ctx, lookupURL, &show); err != nil {
		return nil, fmt.Errorf("failed to look up '%s' on TVmaze: %w", imdbID, err)
	}

	var all []tvmazeEpisode
	episodesURL := fmt.Sprintf("%s/shows/%d/episodes", t.baseURL, show.ID)
	if err := t.sendRequest(ctx, episodesURL, &all); err != nil {
		return nil, fmt.Errorf("failed to list TVmaze episodes for %s: %w", show.Name, err)
	}

	var episodes []Episode
	for _, ep := range all {
		if ep.Season != season || ep.Number == 0 {
			continue
		}
		episodes = append(episodes, Episode{
			Number:      ep.Number,
			Title:       ep.Name,
			ReleaseDate: ep.Airdate,
		})
	}
	if len(episodes) == 0 {
		return nil, fmt.Errorf("TVmaze has no season %d for '%s': %w", season, imdbID, ErrNoResults)
	}
	return episodes, nil
}

func (t *TVmazeClient) sendRequest(ctx context.Context, requestURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoResults
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TVmaze request failed with status: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
