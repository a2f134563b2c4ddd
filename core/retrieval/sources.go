package retrieval

import (
	"sort"

	"github.com/siherrmann/docquery/model"
)

type sourceKey struct {
	document string
	page     int
}

// buildSources turns retrieval results into citations. Results from the same
// document and page collapse into one source keeping the best score, sources
// are ordered best first and capped at maxSources.
func buildSources(results []*model.RetrievalResult, maxSources int) []model.Source {
	best := map[sourceKey]model.Source{}
	for _, result := range results {
		page := 0
		if result.Chunk.Page != nil {
			page = *result.Chunk.Page
		}
		key := sourceKey{document: result.Chunk.DocumentName, page: page}

		if existing, ok := best[key]; ok && existing.Score >= result.Score {
			continue
		}
		best[key] = model.Source{
			Document: result.Chunk.DocumentName,
			Category: result.Chunk.Category,
			Page:     result.Chunk.Page,
			Score:    result.Score,
		}
	}

	sources := make([]model.Source, 0, len(best))
	for _, source := range best {
		sources = append(sources, source)
	}
	sort.SliceStable(sources, func(a, b int) bool {
		if sources[a].Score != sources[b].Score {
			return sources[a].Score > sources[b].Score
		}
		return sources[a].Document < sources[b].Document
	})

	if maxSources > 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	return sources
}
