package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// A fake OMDb for local development. Point metadata.omdb.base_url at it.
// Odd ids are series, even ids are movies, so every search result can be opened.

func main() {
	http.HandleFunc("/", omdbRouter)

	fmt.Println("Fake OMDb server starting on :8090")
	fmt.Println("Any search term returns results; 'nothing' returns Movie not found!")
	log.Fatal(http.ListenAndServe(":8090", nil))
}

// omdbRouter dispatches on the same query parameters the real API uses.
func omdbRouter(w http.ResponseWriter, r *http.Request) {
	log.Printf("Received request URL: %s", r.URL.String())
	if r.Method == http.MethodHead {
		return
	}

	query := r.URL.Query()
	switch {
	case query.Get("apikey") == "":
		writeJSON(w, http.StatusUnauthorized, map[string]string{"Response": "False", "Error": "No API key provided."})
	case query.Get("s") != "":
		searchHandler(w, query.Get("s"))
	case query.Get("i") != "" && query.Get("Season") != "":
		seasonHandler(w, query.Get("i"), query.Get("Season"))
	case query.Get("i") != "":
		titleHandler(w, query.Get("i"))
	default:
		writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Incorrect IMDb ID."})
	}
}

func searchHandler(w http.ResponseWriter, term string) {
	term = strings.TrimSpace(term)
	if strings.EqualFold(term, "nothing") {
		writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Movie not found!"})
		return
	}

	seed := idFor(term)
	name := strings.Title(strings.ToLower(term))
	suffixes := []string{"", " II", ": Reloaded", " Returns", ": The Series", " Origins", ": Revolutions", " Legacy"}

	var results []map[string]string
	for i, suffix := range suffixes {
		id := seed + i
		kind := "movie"
		if id%2 == 1 {
			kind = "series"
		}
		poster := fmt.Sprintf("https://picsum.photos/seed/%d/300/450", id)
		if i == 3 {
			poster = "N/A"
		}
		results = append(results, map[string]string{
			"Title":  name + suffix,
			"Year":   strconv.Itoa(1990 + id%35),
			"Type":   kind,
			"Poster": poster,
			"imdbID": fmt.Sprintf("tt%07d", id),
		})
	}
	results = append(results, map[string]string{
		"Title": name + ": The Game", "Year": "2010", "Type": "game",
		"Poster": "https://picsum.photos/seed/game/300/450", "imdbID": fmt.Sprintf("tt%07d", seed+100),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"Response":     "True",
		"Search":       results,
		"totalResults": strconv.Itoa(len(results)),
	})
}

func titleHandler(w http.ResponseWriter, imdbID string) {
	id, ok := parseID(imdbID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Incorrect IMDb ID."})
		return
	}

	detail := map[string]string{
		"Response":   "True",
		"Title":      fmt.Sprintf("Fake Title %d", id),
		"Year":       strconv.Itoa(1990 + id%35),
		"Runtime":    fmt.Sprintf("%d min", 80+id%60),
		"Genre":      "Action, Sci-Fi",
		"imdbRating": fmt.Sprintf("%.1f", 5+float64(id%50)/10),
		"Plot":       "A generated plot for local development.",
		"Poster":     fmt.Sprintf("https://picsum.photos/seed/%d/300/450", id),
		"Type":       "movie",
		"imdbID":     imdbID,
	}
	if id%2 == 1 {
		detail["Type"] = "series"
		detail["totalSeasons"] = strconv.Itoa(id%5 + 1)
	}
	writeJSON(w, http.StatusOK, detail)
}

func seasonHandler(w http.ResponseWriter, imdbID, seasonStr string) {
	id, ok := parseID(imdbID)
	season, err := strconv.Atoi(seasonStr)
	if !ok || err != nil || id%2 == 0 || season < 1 || season > id%5+1 {
		writeJSON(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Series or season not found!"})
		return
	}

	// Slow seasons make the loading state visible in the UI.
	time.Sleep(time.Duration(rand.Intn(400)) * time.Millisecond)

	count := 6 + (id+season)%7
	aired := time.Date(2000+id%20, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(season-1, 0, 0)
	var episodes []map[string]string
	for i := 1; i <= count; i++ {
		episodes = append(episodes, map[string]string{
			"Title":    fmt.Sprintf("Episode %d", i),
			"Released": aired.AddDate(0, 0, 7*(i-1)).Format("2006-01-02"),
			"Episode":  strconv.Itoa(i),
			"imdbID":   fmt.Sprintf("tt%07d", id*100+i),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"Response": "True",
		"Title":    fmt.Sprintf("Fake Title %d", id),
		"Season":   seasonStr,
		"Episodes": episodes,
	})
}

func idFor(term string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(term)))
	return int(h.Sum32()%9000000) + 100000
}

func parseID(imdbID string) (int, bool) {
	if !strings.HasPrefix(imdbID, "tt") {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(imdbID, "tt"))
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
