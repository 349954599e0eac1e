package inkwell

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

// ErrInvalidCategory is returned when a category lookup is attempted with an
// empty identifier.
var ErrInvalidCategory = errors.New("Invalid category specified")

// CategoryStore owns the category forest and its flattened projection, plus
// the lazily loaded per-category note-title lists used for sidebar
// expansion.
//
// The tree is a read-through cache with no TTL: once populated it is only
// replaced by a mutation-triggered refetch. The full tree is always
// refetched after a successful mutation; the client never patches it
// incrementally.
type CategoryStore struct {
	mu     sync.Mutex
	t      transport.Transport
	tokens token.Store
	log    logger.Logger

	tree     []Category
	flat     []Category
	loaded   bool
	fetching bool
	err      string

	// Title lists are keyed by category id in three parallel maps, with a
	// per-id guard against duplicate concurrent fetches.
	titles        map[string][]NoteTitle
	titlesLoading map[string]bool
	titlesErr     map[string]string

	// displayed is the category whose title list the caller is currently
	// showing; note mutations use it to target sidebar refetches.
	displayed string
}

// NewCategoryStore creates a CategoryStore on the given transport.
func NewCategoryStore(t transport.Transport, tokens token.Store, log logger.Logger) *CategoryStore {
	if log == nil {
		log = logger.Nop{}
	}
	return &CategoryStore{
		t:             t,
		tokens:        tokens,
		log:           log,
		titles:        make(map[string][]NoteTitle),
		titlesLoading: make(map[string]bool),
		titlesErr:     make(map[string]string),
	}
}

// FetchCategoryTree loads the full category forest. It is idempotent while
// in flight: a second call during an outstanding fetch is a no-op. On
// success the nested tree and the pre-order flattened list are replaced in
// one atomic update; on failure both are cleared and the error is recorded
// as state, so callers can tell "failed" from "no categories exist".
func (s *CategoryStore) FetchCategoryTree(ctx context.Context) error {
	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return nil
	}
	s.fetching = true
	s.mu.Unlock()

	var resp categoryTreeResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/categories/tree/structured",
	}, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching = false
	if err != nil {
		s.tree = nil
		s.flat = nil
		s.loaded = false
		s.err = err.Error()
		s.log.Warn("category tree fetch failed", "err", err)
		return err
	}
	s.tree = resp.CategoryTree
	s.flat = flattenCategories(resp.CategoryTree)
	s.loaded = true
	s.err = ""
	return nil
}

// Categories is the read-through entry point: it fetches the tree only when
// the flattened list is empty and no fetch is in flight, and otherwise
// returns the cached list immediately. There is no TTL; only a mutation
// refetch replaces a populated cache.
func (s *CategoryStore) Categories(ctx context.Context) ([]Category, error) {
	s.mu.Lock()
	if len(s.flat) > 0 || s.fetching {
		out := append([]Category(nil), s.flat...)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	if err := s.FetchCategoryTree(ctx); err != nil {
		return nil, err
	}
	return s.Flat(), nil
}

// CategoryDetailsByID resolves a category from the cached flattened list
// when possible and only falls back to a single-category fetch when the id
// is absent from the cache.
func (s *CategoryStore) CategoryDetailsByID(ctx context.Context, id string) (*Category, error) {
	if id == "" {
		return nil, ErrInvalidCategory
	}

	s.mu.Lock()
	for i := range s.flat {
		if s.flat[i].ID == id {
			c := s.flat[i]
			s.mu.Unlock()
			return &c, nil
		}
	}
	s.mu.Unlock()

	var resp categoryResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/categories/" + id,
	}, &resp)
	if err != nil {
		return nil, notFoundOr(err, "Category")
	}
	return &resp.Category, nil
}

// FetchCategoryTitles loads the lightweight title/slug list for one
// category node. Results, loading flags and errors live in per-id maps;
// concurrent fetches for the same id are collapsed into one.
func (s *CategoryStore) FetchCategoryTitles(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return ErrInvalidCategory
	}

	s.mu.Lock()
	if s.titlesLoading[categoryID] {
		s.mu.Unlock()
		return nil
	}
	s.titlesLoading[categoryID] = true
	s.mu.Unlock()

	var resp noteTitlesResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/notes/by-category/" + categoryID + "/titles",
	}, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.titlesLoading[categoryID] = false
	if err != nil {
		s.titlesErr[categoryID] = err.Error()
		s.log.Warn("category titles fetch failed", "category", categoryID, "err", err)
		return err
	}
	s.titles[categoryID] = resp.Notes
	delete(s.titlesErr, categoryID)
	return nil
}

// AddCategory creates a category. Requires a token; on success the whole
// tree is refetched before returning.
func (s *CategoryStore) AddCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}
	var resp categoryResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/categories",
		Body:   in,
		Auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := s.FetchCategoryTree(ctx); err != nil {
		return nil, err
	}
	return &resp.Category, nil
}

// UpdateCategory updates a category. Requires a token; on success the whole
// tree is refetched before returning.
func (s *CategoryStore) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	if id == "" {
		return nil, ErrInvalidCategory
	}
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}
	var resp categoryResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "/api/categories/" + id,
		Body:   in,
		Auth:   true,
	}, &resp)
	if err != nil {
		return nil, notFoundOr(err, "Category")
	}
	if err := s.FetchCategoryTree(ctx); err != nil {
		return nil, err
	}
	return &resp.Category, nil
}

// SetDisplayedCategory records which category's title list the caller is
// currently showing.
func (s *CategoryStore) SetDisplayedCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayed = id
}

// DisplayedCategory returns the category recorded by SetDisplayedCategory.
func (s *CategoryStore) DisplayedCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}

// Tree returns the cached nested forest.
func (s *CategoryStore) Tree() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Category(nil), s.tree...)
}

// Flat returns the cached pre-order flattened list.
func (s *CategoryStore) Flat() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Category(nil), s.flat...)
}

// Loaded reports whether a tree fetch has succeeded since the last failure.
func (s *CategoryStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Fetching reports whether a tree fetch is in flight.
func (s *CategoryStore) Fetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching
}

// Err returns the recorded tree fetch error; empty means the cache is
// healthy (possibly legitimately empty).
func (s *CategoryStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Titles returns the cached title list for a category.
func (s *CategoryStore) Titles(categoryID string) []NoteTitle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NoteTitle(nil), s.titles[categoryID]...)
}

// TitlesLoading reports whether a title fetch for the category is in flight.
func (s *CategoryStore) TitlesLoading(categoryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titlesLoading[categoryID]
}

// TitlesErr returns the recorded title fetch error for a category.
func (s *CategoryStore) TitlesErr(categoryID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titlesErr[categoryID]
}

// RemoveTitle drops a note from every cached title list. Used by note
// deletion, which is a pure removal and needs no refetch.
func (s *CategoryStore) RemoveTitle(noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for cat, list := range s.titles {
		for i := range list {
			if list[i].ID == noteID {
				s.titles[cat] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// flattenCategories produces the pre-order traversal of the forest.
func flattenCategories(tree []Category) []Category {
	var out []Category
	var walk func(nodes []Category)
	walk = func(nodes []Category) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(tree)
	return out
}
