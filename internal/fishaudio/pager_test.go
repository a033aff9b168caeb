package fishaudio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockList = errors.New("mock list error")

// mockLister serves pre-built pages and records every query it receives.
type mockLister struct {
	pages   []ModelPage
	queries []PageQuery
	failAt  int
}

func (m *mockLister) ListModels(_ context.Context, query PageQuery) (*ModelPage, error) {
	m.queries = append(m.queries, query)

	if m.failAt > 0 && query.PageNumber == m.failAt {
		return nil, errMockList
	}

	index := query.PageNumber - 1
	if index >= len(m.pages) {
		return &ModelPage{}, nil
	}

	page := m.pages[index]

	return &page, nil
}

func makeItems(start, count int) []json.RawMessage {
	items := make([]json.RawMessage, 0, count)
	for i := range count {
		items = append(items, json.RawMessage(fmt.Sprintf(`{"_id":"m%d"}`, start+i)))
	}

	return items
}

func collect(t *testing.T, lister PageLister, query PageQuery, returnAll bool) ([]json.RawMessage, error) {
	t.Helper()

	var items []json.RawMessage

	for item, err := range FetchAll(context.Background(), lister, query, returnAll) {
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

func TestFetchAll_SinglePageWithoutReturnAll(t *testing.T) {
	t.Parallel()

	lister := &mockLister{pages: []ModelPage{
		{Items: makeItems(0, 10), Total: 500},
		{Items: makeItems(10, 10), Total: 500},
	}}

	items, err := collect(t, lister, PageQuery{PageSize: 10}, false)
	require.NoError(t, err)

	assert.Len(t, items, 10)
	assert.Len(t, lister.queries, 1)
	assert.Equal(t, 1, lister.queries[0].PageNumber)
}

func TestFetchAll_ReturnAllStopsAtTotal(t *testing.T) {
	t.Parallel()

	lister := &mockLister{pages: []ModelPage{
		{Items: makeItems(0, 100), Total: 125},
		{Items: makeItems(100, 25), Total: 125},
	}}

	items, err := collect(t, lister, PageQuery{PageSize: MaxPageSize}, true)
	require.NoError(t, err)

	assert.Len(t, items, 125)
	require.Len(t, lister.queries, 2)
	assert.Equal(t, 1, lister.queries[0].PageNumber)
	assert.Equal(t, 2, lister.queries[1].PageNumber)
	assert.Equal(t, MaxPageSize, lister.queries[1].PageSize)
}

func TestFetchAll_EmptyPageTerminates(t *testing.T) {
	t.Parallel()

	lister := &mockLister{pages: []ModelPage{
		{Items: makeItems(0, 100), Total: 1000},
		{Items: nil, Total: 1000},
	}}

	items, err := collect(t, lister, PageQuery{PageSize: MaxPageSize}, true)
	require.NoError(t, err)

	assert.Len(t, items, 100)
	assert.Len(t, lister.queries, 2, "no request should follow the empty page")
}

func TestFetchAll_NeverExceedsTotal(t *testing.T) {
	t.Parallel()

	lister := &mockLister{pages: []ModelPage{
		{Items: makeItems(0, 100), Total: 60},
	}}

	items, err := collect(t, lister, PageQuery{PageSize: MaxPageSize}, true)
	require.NoError(t, err)

	assert.Len(t, items, 60)
	assert.Len(t, lister.queries, 1)
}

func TestFetchAll_ErrorStopsSequence(t *testing.T) {
	t.Parallel()

	lister := &mockLister{
		pages: []ModelPage{
			{Items: makeItems(0, 100), Total: 300},
			{Items: makeItems(100, 100), Total: 300},
		},
		failAt: 2,
	}

	items, err := collect(t, lister, PageQuery{PageSize: MaxPageSize}, true)
	require.ErrorIs(t, err, errMockList)

	assert.Len(t, items, 100)
	assert.Len(t, lister.queries, 2)
}

func TestFetchAll_EarlyBreakStopsRequests(t *testing.T) {
	t.Parallel()

	lister := &mockLister{pages: []ModelPage{
		{Items: makeItems(0, 100), Total: 300},
		{Items: makeItems(100, 100), Total: 300},
	}}

	count := 0

	for _, err := range FetchAll(context.Background(), lister, PageQuery{PageSize: MaxPageSize}, true) {
		require.NoError(t, err)

		count++
		if count == 5 {
			break
		}
	}

	assert.Equal(t, 5, count)
	assert.Len(t, lister.queries, 1)
}

func TestFetchAll_FiltersCarriedToEveryPage(t *testing.T) {
	t.Parallel()

	lister := &mockLister{pages: []ModelPage{
		{Items: makeItems(0, 2), Total: 3},
		{Items: makeItems(2, 1), Total: 3},
	}}

	query := PageQuery{PageSize: 2, PageNumber: 7, Filters: ModelFilters{SelfOnly: true, Title: "narrator"}}

	items, err := collect(t, lister, query, true)
	require.NoError(t, err)

	assert.Len(t, items, 3)
	require.Len(t, lister.queries, 2)

	for i, received := range lister.queries {
		assert.Equal(t, i+1, received.PageNumber)
		assert.Equal(t, query.Filters, received.Filters)
	}
}
