package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	notAvailable         = "N/A"
	defaultSharedTimeout = 30 * time.Second
)

type OMDbClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	inflight   singleflight.Group
}

type omdbSearchResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Search   []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		Type   string `json:"Type"`
		Poster string `json:"Poster"`
		IMDbID string `json:"imdbID"`
	} `json:"Search"`
}

type omdbDetailResponse struct {
	Response     string `json:"Response"`
	Error        string `json:"Error"`
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Runtime      string `json:"Runtime"`
	Genre        string `json:"Genre"`
	IMDbRating   string `json:"imdbRating"`
	Plot         string `json:"Plot"`
	Poster       string `json:"Poster"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
	IMDbID       string `json:"imdbID"`
}

type omdbSeasonResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Episodes []struct {
		Episode  string `json:"Episode"`
		Title    string `json:"Title"`
		Released string `json:"Released"`
	} `json:"Episodes"`
}

// NewOMDbClient builds a client limited to requestsPerSecond (burst requests at once).
// A non-positive rate disables limiting.
func NewOMDbClient(apiKey, baseURL string, timeout time.Duration, requestsPerSecond float64, burst int) *OMDbClient {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &OMDbClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// shared runs fetch once per key for every concurrent caller. The fetch is
// detached from the first caller's ctx so one caller giving up does not fail
// the others; each caller still stops waiting when its own ctx is done.
func (o *OMDbClient) shared(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ch := o.inflight.DoChan(key, func() (interface{}, error) {
		timeout := o.httpClient.Timeout
		if timeout <= 0 {
			timeout = defaultSharedTimeout
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (o *OMDbClient) Search(ctx context.Context, query string) ([]SearchResultItem, error) {
	params := url.Values{}
	params.Set("s", query)

	var searchResp omdbSearchResponse
	if err := o.get(ctx, params, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to search OMDb: %w", err)
	}
	if searchResp.Response != "True" {
		return nil, fmt.Errorf("OMDb search for '%s': %s: %w", query, searchResp.Error, ErrNoResults)
	}

	results := make([]SearchResultItem, 0, len(searchResp.Search))
	for _, item := range searchResp.Search {
		results = append(results, SearchResultItem{
			ID:        item.IMDbID,
			Title:     item.Title,
			Year:      item.Year,
			Type:      item.Type,
			PosterURL: posterURL(item.Poster),
		})
	}
	return results, nil
}

func (o *OMDbClient) Lookup(ctx context.Context, id string) (*MediaDetail, error) {
	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", "full")

	v, err := o.shared(ctx, params.Encode(), func(ctx context.Context) (interface{}, error) {
		var detail omdbDetailResponse
		if err := o.get(ctx, params, &detail); err != nil {
			return nil, fmt.Errorf("failed to look up '%s' on OMDb: %w", id, err)
		}
		if detail.Response != "True" {
			return nil, fmt.Errorf("OMDb lookup for '%s': %s: %w", id, detail.Error, ErrNoResults)
		}
		return detail.toMediaDetail(), nil
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing a flight each get their own copy.
	detail := *v.(*MediaDetail)
	return &detail, nil
}

func (o *OMDbClient) Season(ctx context.Context, id string, season int) ([]Episode, error) {
	params := url.Values{}
	params.Set("i", id)
	params.Set("Season", strconv.Itoa(season))

	v, err := o.shared(ctx, params.Encode(), func(ctx context.Context) (interface{}, error) {
		var seasonResp omdbSeasonResponse
		if err := o.get(ctx, params, &seasonResp); err != nil {
			return nil, fmt.Errorf("failed to fetch season %d of '%s' from OMDb: %w", season, id, err)
		}
		if seasonResp.Response != "True" {
			return nil, fmt.Errorf("OMDb season %d of '%s': %s: %w", season, id, seasonResp.Error, ErrNoResults)
		}

		episodes := make([]Episode, 0, len(seasonResp.Episodes))
		for i, ep := range seasonResp.Episodes {
			number, err := strconv.Atoi(ep.Episode)
			if err != nil {
				number = i + 1
			}
			episodes = append(episodes, Episode{
				Number:      number,
				Title:       ep.Title,
				ReleaseDate: ep.Released,
			})
		}
		return episodes, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing a flight must not alias each other's slice.
	shared := v.([]Episode)
	episodes := make([]Episode, len(shared))
	copy(episodes, shared)
	return episodes, nil
}

// Ping checks that the API answers at all; it does not spend a lookup.
func (o *OMDbClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, o.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("OMDb responded with status: %d", resp.StatusCode)
	}
	return nil
}

func (o *OMDbClient) get(ctx context.Context, params url.Values, target interface{}) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("apikey", o.apiKey)
	requestURL := fmt.Sprintf("%s/?%s", o.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create OMDb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OMDb request failed with status: %d", resp.StatusCode)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("failed to read OMDb response: %w", err)
	}
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode OMDb response: %w", err)
	}
	return nil
}

func (d *omdbDetailResponse) toMediaDetail() *MediaDetail {
	detail := &MediaDetail{
		ID:        d.IMDbID,
		Title:     d.Title,
		Year:      d.Year,
		Runtime:   d.Runtime,
		Genre:     d.Genre,
		Rating:    d.IMDbRating,
		Plot:      d.Plot,
		PosterURL: posterURL(d.Poster),
		Kind:      KindMovie,
	}
	if MediaKind(d.Type) == KindSeries {
		detail.Kind = KindSeries
		detail.TotalSeasons = 1
		if n, err := strconv.Atoi(strings.TrimSpace(d.TotalSeasons)); err == nil && n > 0 {
			detail.TotalSeasons = n
		}
	}
	return detail
}

func posterURL(poster string) string {
	if poster == "" || poster == notAvailable {
		return ""
	}
	return poster
}
