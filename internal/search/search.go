// Package search finds templates related to a free-text description.
//
// Relevance is delegated: the store-backed searcher orders templates with an
// injectable Ranker, while the vector backends return whatever their
// similarity query reports.
package search

import (
	"context"
	"slices"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/personalize"
)

// DefaultLimit is the result count used when a caller does not set one.
const DefaultLimit = 5

// Searcher returns up to limit templates related to description.
type Searcher interface {
	Search(ctx context.Context, description string, limit int) ([]model.Template, error)
}

// Indexer makes a template discoverable by a search backend.
type Indexer interface {
	Index(ctx context.Context, t model.Template) error
}

// Ranker orders candidate templates for a description. It may drop
// candidates but must not invent new ones.
type Ranker interface {
	Rank(description string, candidates []model.Template) []model.Template
}

// RankerFunc adapts a function to Ranker.
type RankerFunc func(description string, candidates []model.Template) []model.Template

// Rank calls f.
func (f RankerFunc) Rank(description string, candidates []model.Template) []model.Template {
	return f(description, candidates)
}

// PassThrough keeps candidates in store order.
var PassThrough Ranker = RankerFunc(func(_ string, candidates []model.Template) []model.Template {
	return candidates
})

// Shuffle returns a ranker that orders candidates uniformly at random.
func Shuffle(rnd personalize.Rand) Ranker {
	if rnd == nil {
		rnd = personalize.DefaultRand()
	}
	return RankerFunc(func(_ string, candidates []model.Template) []model.Template {
		out := slices.Clone(candidates)
		for i := len(out) - 1; i > 0; i-- {
			j := rnd.IntN(i + 1)
			out[i], out[j] = out[j], out[i]
		}
		return out
	})
}

// RankerByName resolves a configured ranker name. Unknown names fall back
// to PassThrough.
func RankerByName(name string, rnd personalize.Rand) Ranker {
	switch name {
	case "shuffle", "random":
		return Shuffle(rnd)
	default:
		return PassThrough
	}
}

// Limit normalizes a requested result count.
func Limit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func truncate(templates []model.Template, limit int) []model.Template {
	if len(templates) > limit {
		return templates[:limit]
	}
	return templates
}
