package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"hyperwatch/internal/clients/embed"
	"hyperwatch/internal/config"
	"hyperwatch/internal/core"
	"hyperwatch/internal/utils"
	"hyperwatch/web"
)

const PromptChooseTitle = "Please choose a title to watch."

type pageData struct {
	SiteName  string
	Title     string
	BodyID    string
	Query     string
	Policy    *embed.NavigationPolicy
	SessionID string
	Results   core.ResultsPage
	Watch     core.WatchView
	Prompt    string

	EpisodesFailure string
}

type PageHandler struct {
	config    *config.Config
	manager   *core.Manager
	templates *web.Templates
	policy    *embed.NavigationPolicy
	logger    *utils.Logger
}

func NewPageHandler(cfg *config.Config, manager *core.Manager, templates *web.Templates, policy *embed.NavigationPolicy, logger *utils.Logger) *PageHandler {
	return &PageHandler{
		config:    cfg,
		manager:   manager,
		templates: templates,
		policy:    policy,
		logger:    logger,
	}
}

func (h *PageHandler) newPage(bodyID, title string) pageData {
	site := h.config.App.SiteName
	if title != "" {
		title = fmt.Sprintf("%s - %s", title, site)
	} else {
		title = site
	}
	return pageData{SiteName: site, Title: title, BodyID: bodyID, Policy: h.policy}
}

// render buffers the page so a template error still produces a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, page, data); err != nil {
		h.logger.Error("Failed to render", page, "page:", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, http.StatusOK, "home", h.newPage("home-page", ""))
}

func (h *PageHandler) Results(w http.ResponseWriter, r *http.Request) {
	results := h.manager.Results(r.Context(), r.URL.Query().Get("search"))

	data := h.newPage("results-page", results.Query)
	data.Query = results.Query
	data.Results = results
	h.render(w, http.StatusOK, "results", data)
}

func (h *PageHandler) Watch(w http.ResponseWriter, r *http.Request) {
	id := utils.NormalizeQuery(r.URL.Query().Get("id"))
	if id == "" {
		data := h.newPage("watch-page", "")
		data.Prompt = PromptChooseTitle
		h.render(w, http.StatusOK, "watch", data)
		return
	}

	sessionID, view := h.manager.OpenWatch(r.Context(), id)

	title := ""
	status := http.StatusOK
	switch {
	case view.Detail != nil:
		title = "Watch " + view.Detail.Title
	case view.Message == core.TitleNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusBadGateway
	}

	data := h.newPage("watch-page", title)
	data.SessionID = sessionID
	data.EpisodesFailure = core.EpisodesFailure
	data.Watch = view
	h.render(w, status, "watch", data)
}
