package metadata

import (
	"context"
	"errors"
	"fmt"
)

// SeasonChain tries each episode source in order and returns the first success.
type SeasonChain struct {
	sources []EpisodeSource
}

func NewSeasonChain(sources ...EpisodeSource) *SeasonChain {
	return &SeasonChain{sources: sources}
}

func (c *SeasonChain) Len() int {
	return len(c.sources)
}

func (c *SeasonChain) Season(ctx context.Context, id string, season int) ([]Episode, error) {
	if len(c.sources) == 0 {
		return nil, errors.New("no episode source configured")
	}

	var errs []error
	for _, source := range c.sources {
		episodes, err := source.Season(ctx, id, season)
		if err == nil {
			return episodes, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("all episode sources failed: %w", errors.Join(errs...))
}
