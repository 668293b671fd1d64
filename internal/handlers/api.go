package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"hyperwatch/internal/clients/embed"
	"hyperwatch/internal/clients/metadata"
	"hyperwatch/internal/core"
	"hyperwatch/internal/utils"

	"github.com/gorilla/mux"
)

type APIHandler struct {
	manager *core.Manager
	logger  *utils.Logger
}

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to respond with a JSON error
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func NewAPIHandler(manager *core.Manager, logger *utils.Logger) *APIHandler {
	return &APIHandler{manager: manager, logger: logger}
}

// Suggest answers a single suggestion query. Debouncing only applies on the live channel.
func (h *APIHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.manager.Suggest(r.Context(), r.URL.Query().Get("q")))
}

func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := utils.NormalizeQuery(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, core.PromptSearchTerm)
		return
	}

	page := h.manager.Results(r.Context(), query)
	if page.Failed {
		respondJSON(w, http.StatusBadGateway, page)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *APIHandler) GetTitle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, err := h.manager.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, metadata.ErrNoResults) {
			respondError(w, http.StatusNotFound, core.TitleNotFound)
			return
		}
		h.logger.Error("Title lookup failed for", id, ":", err)
		respondError(w, http.StatusBadGateway, core.TitleFailure)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *APIHandler) GetSeason(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	season, err := strconv.Atoi(vars["season"])
	if err != nil || season < 1 {
		respondError(w, http.StatusBadRequest, "Invalid season number")
		return
	}

	episodes, err := h.manager.Season(r.Context(), id, season)
	if err != nil {
		if errors.Is(err, metadata.ErrNoResults) {
			respondError(w, http.StatusNotFound, core.EpisodesFailure)
			return
		}
		h.logger.Error("Season lookup failed for", id, "season", season, ":", err)
		respondError(w, http.StatusBadGateway, core.EpisodesFailure)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"season":   season,
		"episodes": episodes,
	})
}

// GetPlayer composes the embed URL for ?kind=movie&id= or ?kind=series&id=&season=&episode=.
func (h *APIHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'id' is required")
		return
	}

	kind := embed.KindMovie
	if raw := q.Get("kind"); raw != "" {
		parsed, err := embed.ParseKind(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = parsed
	}

	target := embed.MovieTarget(id)
	if kind == embed.KindSeries {
		season, errS := strconv.Atoi(q.Get("season"))
		episode, errE := strconv.Atoi(q.Get("episode"))
		if errS != nil || errE != nil || season < 1 || episode < 1 {
			respondError(w, http.StatusBadRequest, "Series players need positive 'season' and 'episode'")
			return
		}
		target = embed.EpisodeTarget(id, season, episode)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"target": target,
		"url":    h.manager.PlayerURL(target),
	})
}

func (h *APIHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.manager.GetSystemStatus())
}
