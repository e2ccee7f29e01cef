package search

import (
	"context"
	"fmt"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/store"
)

// StoreSearcher searches the template store itself.
type StoreSearcher struct {
	store  store.Store
	ranker Ranker
}

// NewStoreSearcher creates a searcher over s. A nil ranker keeps store order.
func NewStoreSearcher(s store.Store, ranker Ranker) *StoreSearcher {
	if ranker == nil {
		ranker = PassThrough
	}
	return &StoreSearcher{store: s, ranker: ranker}
}

// Search ranks every stored template and returns at most limit of them.
func (s *StoreSearcher) Search(ctx context.Context, description string, limit int) ([]model.Template, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return truncate(s.ranker.Rank(description, all), Limit(limit)), nil
}
