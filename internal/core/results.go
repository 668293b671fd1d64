package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"hyperwatch/internal/clients/metadata"
	"hyperwatch/internal/utils"
)

const (
	PromptSearchTerm = "Please enter a search term."
	GenericFailure   = "Something went wrong. Please try again."
)

type ResultCard struct {
	metadata.SearchResultItem
	Delay time.Duration `json:"delay"`
	Href  string        `json:"href"`
}

// DelaySeconds is the CSS animation-delay of the card.
func (c ResultCard) DelaySeconds() string {
	return fmt.Sprintf("%.2fs", c.Delay.Seconds())
}

type ResultsPage struct {
	Query   string       `json:"query"`
	Title   string       `json:"title"`
	Cards   []ResultCard `json:"cards"`
	Message string       `json:"message,omitempty"`
	Failed  bool         `json:"failed,omitempty"`
}

func NoResultsMessage(query string) string {
	return `No results found for "` + query + `".`
}

func WatchHref(id string) string {
	return "/watch?id=" + url.QueryEscape(id)
}

// BuildCards keeps playable items in their returned order; card i enters after i*step.
func BuildCards(items []metadata.SearchResultItem, step time.Duration) []ResultCard {
	cards := make([]ResultCard, 0, len(items))
	for _, item := range items {
		if !item.Playable() {
			continue
		}
		cards = append(cards, ResultCard{
			SearchResultItem: item,
			Delay:            time.Duration(len(cards)) * step,
			Href:             WatchHref(item.ID),
		})
	}
	return cards
}

// Results runs a full search for the results page.
func (m *Manager) Results(ctx context.Context, rawQuery string) ResultsPage {
	query := utils.NormalizeQuery(rawQuery)
	if query == "" {
		return ResultsPage{Title: PromptSearchTerm}
	}

	page := ResultsPage{
		Query: query,
		Title: `Results for "` + query + `"`,
	}

	items, err := m.metadata.Search(ctx, query)
	if err != nil {
		if errors.Is(err, metadata.ErrNoResults) {
			page.Message = NoResultsMessage(query)
			return page
		}
		m.logger.Error("Results search failed for", query, ":", err)
		page.Message = GenericFailure
		page.Failed = true
		return page
	}

	page.Cards = BuildCards(items, m.config.StaggerStep())
	if len(page.Cards) == 0 {
		page.Message = NoResultsMessage(query)
	}
	return page
}
