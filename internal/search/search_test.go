package search

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/personalize"
	"github.com/coldreach/email-generator/internal/store"
)

func seededStore(t *testing.T, extra int) *store.MemoryStore {
	t.Helper()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := store.NewMemoryStore(store.SeedTemplates(base)...)
	for i := 0; i < extra; i++ {
		require.NoError(t, s.Add(context.Background(), model.Template{
			ID:        "extra-" + strconv.Itoa(i),
			Name:      "Extra " + strconv.Itoa(i),
			Content:   "Hi {{recipient.name}}",
			CreatedAt: base.Add(time.Duration(i+1) * time.Minute),
		}))
	}
	return s
}

func ids(templates []model.Template) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.ID
	}
	return out
}

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, Limit(0))
	assert.Equal(t, DefaultLimit, Limit(-3))
	assert.Equal(t, 2, Limit(2))
}

func TestStoreSearcher_PassThroughKeepsStoreOrder(t *testing.T) {
	s := NewStoreSearcher(seededStore(t, 0), nil)

	got, err := s.Search(context.Background(), "follow up after a conference", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestStoreSearcher_RespectsLimit(t *testing.T) {
	s := NewStoreSearcher(seededStore(t, 10), PassThrough)

	got, err := s.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLimit)

	got, err = s.Search(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestStoreSearcher_CustomRanker(t *testing.T) {
	var gotDescription string
	reverse := RankerFunc(func(description string, candidates []model.Template) []model.Template {
		gotDescription = description
		out := make([]model.Template, 0, len(candidates))
		for i := len(candidates) - 1; i >= 0; i-- {
			out = append(out, candidates[i])
		}
		return out
	})

	s := NewStoreSearcher(seededStore(t, 0), reverse)
	got, err := s.Search(context.Background(), "referral", 5)
	require.NoError(t, err)
	assert.Equal(t, "referral", gotDescription)
	assert.Equal(t, []string{"3", "2", "1"}, ids(got))
}

func TestShuffle_IsPermutation(t *testing.T) {
	candidates := store.SeedTemplates(time.Now())
	rank := Shuffle(personalize.NewSeededRand(9, 9))

	orders := make(map[string]bool)
	for i := 0; i < 200; i++ {
		got := rank.Rank("", candidates)
		require.ElementsMatch(t, ids(candidates), ids(got))
		orders[ids(got)[0]+ids(got)[1]+ids(got)[2]] = true
	}

	assert.Len(t, orders, 6, "every ordering of three templates should appear")
	assert.Equal(t, []string{"1", "2", "3"}, ids(candidates), "input must not be reordered")
}

func TestRankerByName(t *testing.T) {
	candidates := store.SeedTemplates(time.Now())

	assert.Equal(t, ids(candidates), ids(RankerByName("passthrough", nil).Rank("", candidates)))
	assert.Equal(t, ids(candidates), ids(RankerByName("unknown", nil).Rank("", candidates)))
	assert.ElementsMatch(t, ids(candidates), ids(RankerByName("shuffle", nil).Rank("", candidates)))
}

type failingStore struct{ store.Store }

func (failingStore) List(context.Context) ([]model.Template, error) {
	return nil, errors.New("connection refused")
}

func TestStoreSearcher_StoreError(t *testing.T) {
	s := NewStoreSearcher(failingStore{}, nil)

	_, err := s.Search(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "connection refused")
}
