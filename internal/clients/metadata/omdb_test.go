package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOMDbServer(t *testing.T, handler http.HandlerFunc) *OMDbClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOMDbClient("test-key", srv.URL, 2*time.Second, 0, 1)
}

func TestOMDbClient_Search(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "breaking bad", r.URL.Query().Get("s"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"Response":"True","Search":[
			{"Title":"Breaking Bad","Year":"2008–2013","Type":"series","Poster":"https://img/bb.jpg","imdbID":"tt0903747"},
			{"Title":"Breaking Bad: The Game","Year":"2010","Type":"game","Poster":"N/A","imdbID":"tt9999999"}
		]}`))
	})

	items, err := client.Search(context.Background(), "breaking bad")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, SearchResultItem{
		ID: "tt0903747", Title: "Breaking Bad", Year: "2008–2013", Type: "series", PosterURL: "https://img/bb.jpg",
	}, items[0])
	assert.Empty(t, items[1].PosterURL, "N/A poster maps to empty")
	assert.True(t, items[0].Playable())
	assert.False(t, items[1].Playable())
}

func TestOMDbClient_SearchNegativeResponse(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	})

	_, err := client.Search(context.Background(), "zzzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestOMDbClient_TransportFailureIsNotNoResults(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.Search(context.Background(), "matrix")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoResults))
}

func TestOMDbClient_StatusError(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Lookup(context.Background(), "tt0133093")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOMDbClient_LookupSeries(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0903747", r.URL.Query().Get("i"))
		assert.Equal(t, "full", r.URL.Query().Get("plot"))
		w.Write([]byte(`{"Response":"True","Title":"Breaking Bad","Year":"2008–2013","Runtime":"49 min",
			"Genre":"Crime, Drama","imdbRating":"9.5","Plot":"A chemistry teacher...","Poster":"https://img/bb.jpg",
			"Type":"series","totalSeasons":"5","imdbID":"tt0903747"}`))
	})

	detail, err := client.Lookup(context.Background(), "tt0903747")
	require.NoError(t, err)
	assert.True(t, detail.IsSeries())
	assert.Equal(t, 5, detail.TotalSeasons)
	assert.Equal(t, "9.5", detail.Rating)
	assert.Equal(t, "49 min", detail.Runtime)
}

func TestOMDbClient_LookupSeriesWithoutSeasonCount(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True","Title":"Pilot Only","Type":"series","totalSeasons":"N/A","imdbID":"tt1"}`))
	})

	detail, err := client.Lookup(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.TotalSeasons)
}

func TestOMDbClient_LookupMovie(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True","Title":"The Matrix","Type":"movie","Poster":"N/A","imdbID":"tt0133093"}`))
	})

	detail, err := client.Lookup(context.Background(), "tt0133093")
	require.NoError(t, err)
	assert.Equal(t, KindMovie, detail.Kind)
	assert.Zero(t, detail.TotalSeasons)
	assert.Empty(t, detail.PosterURL)
}

func TestOMDbClient_Season(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("Season"))
		w.Write([]byte(`{"Response":"True","Episodes":[
			{"Episode":"1","Title":"Seven Thirty-Seven","Released":"2009-03-08"},
			{"Episode":"2","Title":"Grilled","Released":"2009-03-15"}
		]}`))
	})

	episodes, err := client.Season(context.Background(), "tt0903747", 2)
	require.NoError(t, err)
	assert.Equal(t, []Episode{
		{Number: 1, Title: "Seven Thirty-Seven", ReleaseDate: "2009-03-08"},
		{Number: 2, Title: "Grilled", ReleaseDate: "2009-03-15"},
	}, episodes)
}

func TestOMDbClient_DecodesLatin1Body(t *testing.T) {
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=iso-8859-1")
		// "Amélie" with é as a single latin-1 byte
		w.Write([]byte("{\"Response\":\"True\",\"Title\":\"Am\xe9lie\",\"Type\":\"movie\",\"imdbID\":\"tt0211915\"}"))
	})

	detail, err := client.Lookup(context.Background(), "tt0211915")
	require.NoError(t, err)
	assert.Equal(t, "Amélie", detail.Title)
}

func TestOMDbClient_CoalescesConcurrentLookups(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(`{"Response":"True","Title":"The Matrix","Type":"movie","imdbID":"tt0133093"}`))
	})

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := client.Lookup(context.Background(), "tt0133093")
			done <- err
		}()
	}
	// let both callers join the same flight before the server answers
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOMDbClient_SharedLookupSurvivesFirstCallerLeaving(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(`{"Response":"True","Title":"The Matrix","Type":"movie","imdbID":"tt0133093"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := client.Lookup(ctx, "tt0133093")
		first <- err
	}()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan *MediaDetail, 1)
	secondErr := make(chan error, 1)
	go func() {
		detail, err := client.Lookup(context.Background(), "tt0133093")
		second <- detail
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared request")
	}

	close(release)
	require.NoError(t, <-secondErr)
	assert.Equal(t, "The Matrix", (<-second).Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOMDbClient_SharedLookupReturnsCopies(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	client := newOMDbServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(`{"Response":"True","Title":"The Matrix","Type":"movie"}`))
	})

	results := make(chan *MediaDetail, 2)
	for i := 0; i < 2; i++ {
		go func() {
			detail, err := client.Lookup(context.Background(), "tt0133093")
			assert.NoError(t, err)
			results <- detail
		}()
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)

	a, b := <-results, <-results
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)

	// upstream omitted imdbID; filling it in on one copy leaves the other alone
	a.ID = "tt0133093"
	assert.Empty(t, b.ID)
}
