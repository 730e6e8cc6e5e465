package pocket

import (
	"context"
	"sort"
)

// GetTagSummary returns, for every tag used in the user's list, the number
// of items carrying it. The order of the result is unspecified.
func (c *Client) GetTagSummary(ctx context.Context, accessToken string) ([]TagSummary, error) {
	list, err := c.Retrieve(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	summaries := CountTags(list.List)

	c.logger.Debug().
		Int("items", len(list.List)).
		Int("tags", len(summaries)).
		Msg("Computed tag summary")

	return summaries, nil
}

// CountTags counts, per tag name, the items of list that carry it.
func CountTags(list map[string]SavedItem) []TagSummary {
	counts := make(map[string]int)
	for _, item := range list {
		for name := range item.Tags {
			counts[name]++
		}
	}

	summaries := make([]TagSummary, 0, len(counts))
	for name, count := range counts {
		summaries = append(summaries, TagSummary{Tag: name, ItemCount: count})
	}

	return summaries
}

// SortTagSummaries orders summaries by descending count, then by tag name.
func SortTagSummaries(summaries []TagSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ItemCount != summaries[j].ItemCount {
			return summaries[i].ItemCount > summaries[j].ItemCount
		}
		return summaries[i].Tag < summaries[j].Tag
	})
}
