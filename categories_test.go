package inkwell_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inkwell "github.com/inkwellhq/inkwell.go"
	"github.com/inkwellhq/inkwell.go/internal/mock"
	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

func newTestClient(t *testing.T, authenticated bool) (*mock.Transport, *inkwell.Client) {
	t.Helper()
	m := mock.New()
	tokens := token.NewMemory()
	if authenticated {
		require.NoError(t, tokens.SetToken("test-token"))
	}
	return m, inkwell.FromTransport(m, tokens, nil)
}

func strPtr(s string) *string { return &s }

func sampleTree() map[string]any {
	return map[string]any{
		"success": true,
		"categoryTree": []inkwell.Category{
			{
				ID:   "cat-go",
				Name: "Go",
				Children: []inkwell.Category{
					{ID: "cat-concurrency", Name: "Concurrency", Parent: strPtr("cat-go")},
				},
			},
			{ID: "cat-life", Name: "Life"},
		},
	}
}

func TestFetchCategoryTreeReplacesTreeAndFlatList(t *testing.T) {
	m, c := newTestClient(t, false)
	m.Reply(http.MethodGet, "/api/categories/tree/structured", sampleTree())

	require.NoError(t, c.Categories.FetchCategoryTree(context.Background()))

	tree := c.Categories.Tree()
	require.Len(t, tree, 2)
	assert.Equal(t, "Go", tree[0].Name)

	flat := c.Categories.Flat()
	flatIDs := make([]string, 0, len(flat))
	for _, cat := range flat {
		flatIDs = append(flatIDs, cat.ID)
	}
	assert.Equal(t, []string{"cat-go", "cat-concurrency", "cat-life"}, flatIDs,
		"flattened list is the pre-order traversal")
	assert.True(t, c.Categories.Loaded())
	assert.Empty(t, c.Categories.Err())
}

func TestFetchCategoryTreeFailureClearsAndRecordsError(t *testing.T) {
	m, c := newTestClient(t, false)
	calls := 0
	m.Handle(http.MethodGet, "/api/categories/tree/structured", func(*transport.Request) (any, error) {
		calls++
		if calls == 1 {
			return sampleTree(), nil
		}
		return nil, &transport.APIError{StatusCode: 500}
	})

	require.NoError(t, c.Categories.FetchCategoryTree(context.Background()))
	require.NotEmpty(t, c.Categories.Flat())

	// The refetch fails: both projections are cleared, error recorded.
	err := c.Categories.FetchCategoryTree(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Categories.Tree())
	assert.Empty(t, c.Categories.Flat())
	assert.NotEmpty(t, c.Categories.Err(), "empty+error must be distinguishable from empty+no-error")
	assert.False(t, c.Categories.Loaded())
}

func TestCategoriesReadThroughIdempotence(t *testing.T) {
	m, c := newTestClient(t, false)
	m.Reply(http.MethodGet, "/api/categories/tree/structured", sampleTree())

	first, err := c.Categories.Categories(context.Background())
	require.NoError(t, err)
	second, err := c.Categories.Categories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Calls(http.MethodGet, "/api/categories/tree/structured"),
		"two back-to-back calls must issue at most one network request")
}

func TestCategoryDetailsByID(t *testing.T) {
	m, c := newTestClient(t, false)
	m.Reply(http.MethodGet, "/api/categories/tree/structured", sampleTree())
	m.Reply(http.MethodGet, "/api/categories/cat-rare", map[string]any{
		"success":  true,
		"category": inkwell.Category{ID: "cat-rare", Name: "Rare"},
	})
	m.Fail(http.MethodGet, "/api/categories/cat-gone", &transport.APIError{StatusCode: 404})

	require.NoError(t, c.Categories.FetchCategoryTree(context.Background()))

	t.Run("cached id resolves without network", func(t *testing.T) {
		before := m.Total()
		cat, err := c.Categories.CategoryDetailsByID(context.Background(), "cat-concurrency")
		require.NoError(t, err)
		assert.Equal(t, "Concurrency", cat.Name)
		assert.Equal(t, before, m.Total(), "cache hit must not hit the network")
	})

	t.Run("uncached id falls back to single fetch", func(t *testing.T) {
		cat, err := c.Categories.CategoryDetailsByID(context.Background(), "cat-rare")
		require.NoError(t, err)
		assert.Equal(t, "Rare", cat.Name)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := c.Categories.CategoryDetailsByID(context.Background(), "")
		assert.ErrorIs(t, err, inkwell.ErrInvalidCategory)
	})

	t.Run("404 maps to domain message", func(t *testing.T) {
		_, err := c.Categories.CategoryDetailsByID(context.Background(), "cat-gone")
		require.Error(t, err)
		assert.Equal(t, "Category not found", err.Error())
	})
}

func TestFetchCategoryTitles(t *testing.T) {
	m, c := newTestClient(t, false)
	m.Reply(http.MethodGet, "/api/notes/by-category/cat-go/titles", map[string]any{
		"success": true,
		"notes": []inkwell.NoteTitle{
			{ID: "n1", Title: "Intro", Slug: "intro"},
			{ID: "n2", Title: "Errors", Slug: "errors"},
		},
	})
	m.Fail(http.MethodGet, "/api/notes/by-category/cat-bad/titles", &transport.APIError{StatusCode: 500})

	require.NoError(t, c.Categories.FetchCategoryTitles(context.Background(), "cat-go"))
	titles := c.Categories.Titles("cat-go")
	require.Len(t, titles, 2)
	assert.Equal(t, "intro", titles[0].Slug)
	assert.Empty(t, c.Categories.TitlesErr("cat-go"))

	t.Run("failure is scoped to its category id", func(t *testing.T) {
		err := c.Categories.FetchCategoryTitles(context.Background(), "cat-bad")
		require.Error(t, err)
		assert.NotEmpty(t, c.Categories.TitlesErr("cat-bad"))
		assert.Empty(t, c.Categories.TitlesErr("cat-go"))
		assert.Len(t, c.Categories.Titles("cat-go"), 2)
	})

	t.Run("empty id", func(t *testing.T) {
		err := c.Categories.FetchCategoryTitles(context.Background(), "")
		assert.ErrorIs(t, err, inkwell.ErrInvalidCategory)
	})
}

func TestCategoryMutationsRequireAuth(t *testing.T) {
	m, c := newTestClient(t, false)

	_, err := c.Categories.AddCategory(context.Background(), inkwell.CategoryInput{Name: "X"})
	assert.ErrorIs(t, err, inkwell.ErrAuthRequired)

	_, err = c.Categories.UpdateCategory(context.Background(), "cat-go", inkwell.CategoryInput{Name: "X"})
	assert.ErrorIs(t, err, inkwell.ErrAuthRequired)

	assert.Zero(t, m.Total(), "unauthenticated mutations must not touch the network")
}

func TestAddCategoryRefetchesTree(t *testing.T) {
	m, c := newTestClient(t, true)
	m.Reply(http.MethodPost, "/api/categories", map[string]any{
		"success":  true,
		"category": inkwell.Category{ID: "cat-new", Name: "New"},
	})
	m.Reply(http.MethodGet, "/api/categories/tree/structured", sampleTree())

	cat, err := c.Categories.AddCategory(context.Background(), inkwell.CategoryInput{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "cat-new", cat.ID)
	assert.Equal(t, 1, m.Calls(http.MethodGet, "/api/categories/tree/structured"),
		"a successful mutation refetches the whole tree")
	assert.True(t, c.Categories.Loaded())
}

func TestUpdateCategoryRefetchesTree(t *testing.T) {
	m, c := newTestClient(t, true)
	m.Reply(http.MethodPut, "/api/categories/cat-go", map[string]any{
		"success":  true,
		"category": inkwell.Category{ID: "cat-go", Name: "Golang"},
	})
	m.Reply(http.MethodGet, "/api/categories/tree/structured", sampleTree())

	cat, err := c.Categories.UpdateCategory(context.Background(), "cat-go", inkwell.CategoryInput{Name: "Golang"})
	require.NoError(t, err)
	assert.Equal(t, "Golang", cat.Name)
	assert.Equal(t, 1, m.Calls(http.MethodGet, "/api/categories/tree/structured"))
}

func TestRemoveTitlePurgesAllLists(t *testing.T) {
	m, c := newTestClient(t, false)
	m.Reply(http.MethodGet, "/api/notes/by-category/cat-go/titles", map[string]any{
		"success": true,
		"notes":   []inkwell.NoteTitle{{ID: "n1", Title: "Intro"}, {ID: "n2", Title: "Errors"}},
	})
	require.NoError(t, c.Categories.FetchCategoryTitles(context.Background(), "cat-go"))

	c.Categories.RemoveTitle("n1")
	titles := c.Categories.Titles("cat-go")
	require.Len(t, titles, 1)
	assert.Equal(t, "n2", titles[0].ID)
}
