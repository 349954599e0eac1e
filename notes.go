package inkwell

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/inkwellhq/inkwell.go/pkg/feed"
	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

// Page sizes match what the Inkwell web client requests.
const (
	globalPageSize   = 9
	categoryPageSize = 9
	featuredPageSize = 5
	searchPageSize   = 20
	recentLimit      = 5

	// The featured feed retries transient failures with linearly increasing
	// backoff before giving up.
	featuredMaxAttempts = 3
)

func noteID(n Note) string { return n.ID }

// NoteStore maintains the paginated note collections (global feed, keyed
// category feed, featured feed, user-owned feed, search results, single
// note by slug, recent list) and keeps all of them consistent under
// create/edit/delete without full refetches.
//
// Reads record failures as collection state and halt pagination; mutations
// return errors. Every mutation requires a token and fails before any
// network call when none is present.
type NoteStore struct {
	mu     sync.Mutex
	t      transport.Transport
	tokens token.Store
	cats   *CategoryStore
	log    logger.Logger

	global   *feed.Collection[Note]
	featured *feed.Collection[Note]
	user     *feed.Collection[Note]

	search      *feed.Collection[Note]
	searchQuery string

	category   *feed.Collection[Note]
	categoryID string

	recent        []Note
	recentLoading bool
	recentErr     string

	currentSlug string
	currentNote *Note
	noteLoading bool
	noteErr     string
	noteEpoch   uint64

	// sleep is swapped out in tests so retry backoff does not stall them.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewNoteStore creates a NoteStore. cats is consulted for targeted sidebar
// title-list refetches after note mutations.
func NewNoteStore(t transport.Transport, tokens token.Store, cats *CategoryStore, log logger.Logger) *NoteStore {
	if log == nil {
		log = logger.Nop{}
	}
	return &NoteStore{
		t:        t,
		tokens:   tokens,
		cats:     cats,
		log:      log,
		global:   feed.New(noteID),
		featured: feed.New(noteID),
		user:     feed.New(noteID),
		search:   feed.New(noteID),
		category: feed.New(noteID),
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetchPage runs the shared pagination algorithm against one collection:
// skip when a fetch is in flight or the feed is exhausted, request one page
// past the opaque cursor, merge with deduplication, store cursor and
// has-more verbatim.
func (s *NoteStore) fetchPage(ctx context.Context, col *feed.Collection[Note], path string, limit int) error {
	epoch, ok := col.Begin(true)
	if !ok {
		return nil
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cur := col.Cursor(); cur != "" {
		q.Set("lastId", cur)
	}

	var resp notesPageResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  q,
	}, &resp)
	if err != nil {
		col.Fail(epoch, err.Error())
		s.log.Warn("notes page fetch failed", "path", path, "err", err)
		return err
	}
	col.ApplyBatch(epoch, resp.Notes, resp.NextLastID, resp.HasMore)
	return nil
}

// FetchNextNotes appends the next page of the global feed, or starts over
// when reset is set.
func (s *NoteStore) FetchNextNotes(ctx context.Context, reset bool) error {
	if reset {
		s.global.Reset()
	}
	return s.fetchPage(ctx, s.global, "/api/notes/fetchNextNote", globalPageSize)
}

// FetchCategoryNotes appends the next page of the category feed. Switching
// category ids resets the feed atomically before the fetch begins, and the
// epoch bump discards any response still in flight for the old id.
func (s *NoteStore) FetchCategoryNotes(ctx context.Context, categoryID string, reset bool) error {
	if categoryID == "" {
		return ErrInvalidCategory
	}
	s.mu.Lock()
	if s.categoryID != categoryID {
		s.categoryID = categoryID
		s.category.Reset()
	} else if reset {
		s.category.Reset()
	}
	s.mu.Unlock()

	return s.fetchPage(ctx, s.category, "/api/notes/by-category/"+categoryID, categoryPageSize)
}

// FetchFeaturedNotes appends the next page of the featured feed, retrying
// transient failures up to featuredMaxAttempts with linear backoff (1s then
// 2s) before recording the failure and halting pagination.
func (s *NoteStore) FetchFeaturedNotes(ctx context.Context, reset bool) error {
	if reset {
		s.featured.Reset()
	}
	epoch, ok := s.featured.Begin(true)
	if !ok {
		return nil
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(featuredPageSize))
	if cur := s.featured.Cursor(); cur != "" {
		q.Set("lastId", cur)
	}

	var lastErr error
	for attempt := 1; attempt <= featuredMaxAttempts; attempt++ {
		var resp notesPageResponse
		err := s.t.Do(ctx, &transport.Request{
			Method: http.MethodGet,
			Path:   "/api/notes/featured/batch",
			Query:  q,
		}, &resp)
		if err == nil {
			s.featured.ApplyBatch(epoch, resp.Notes, resp.NextLastID, resp.HasMore)
			return nil
		}
		lastErr = err
		s.log.Warn("featured fetch failed", "attempt", attempt, "err", err)
		if attempt == featuredMaxAttempts {
			break
		}
		if err := s.sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
			lastErr = err
			break
		}
	}
	s.featured.Fail(epoch, lastErr.Error())
	return lastErr
}

// FetchUserNotes replaces the user-owned feed with everything the current
// user has authored. The endpoint is unpaginated and requires a token.
func (s *NoteStore) FetchUserNotes(ctx context.Context) error {
	if err := requireToken(s.tokens); err != nil {
		return err
	}
	s.user.Reset()
	epoch, ok := s.user.Begin(false)
	if !ok {
		return nil
	}
	var resp notesResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/notes/fetchallnotes",
		Auth:   true,
	}, &resp)
	if err != nil {
		s.user.Fail(epoch, err.Error())
		return err
	}
	s.user.ApplyBatch(epoch, resp.Notes, "", false)
	return nil
}

// SearchNotes runs a query-keyed search. Clearing the query (empty string)
// clears results and error state synchronously with no network call.
func (s *NoteStore) SearchNotes(ctx context.Context, query string) error {
	s.mu.Lock()
	if query == "" {
		s.searchQuery = ""
		s.search.Reset()
		s.mu.Unlock()
		return nil
	}
	if s.searchQuery != query {
		s.searchQuery = query
		s.search.Reset()
	}
	s.mu.Unlock()

	epoch, ok := s.search.Begin(false)
	if !ok {
		return nil
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(searchPageSize))
	var resp notesResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/notes/search",
		Query:  q,
	}, &resp)
	if err != nil {
		s.search.Fail(epoch, err.Error())
		return err
	}
	s.search.ApplyBatch(epoch, resp.Notes, "", false)
	return nil
}

// FetchNoteBySlug loads a single note by its permalink slug. A slug change
// clears the held note before the fetch and invalidates responses still in
// flight for the previous slug.
func (s *NoteStore) FetchNoteBySlug(ctx context.Context, slug string) error {
	s.mu.Lock()
	if s.currentSlug != slug {
		s.currentSlug = slug
		s.currentNote = nil
		s.noteErr = ""
		s.noteLoading = false
		s.noteEpoch++
	}
	if s.noteLoading {
		s.mu.Unlock()
		return nil
	}
	s.noteLoading = true
	epoch := s.noteEpoch
	s.mu.Unlock()

	var resp noteResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/notes/fetchNoteBySlug/" + slug,
	}, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.noteEpoch {
		return nil
	}
	s.noteLoading = false
	if err != nil {
		s.noteErr = notFoundOr(err, "Post").Error()
		return err
	}
	note := resp.Note
	s.currentNote = &note
	s.noteErr = ""
	return nil
}

// FetchRecentNotes refreshes the recent-posts sidebar list.
func (s *NoteStore) FetchRecentNotes(ctx context.Context) error {
	s.mu.Lock()
	if s.recentLoading {
		s.mu.Unlock()
		return nil
	}
	s.recentLoading = true
	s.mu.Unlock()

	q := url.Values{}
	q.Set("limit", strconv.Itoa(recentLimit))
	var resp notesResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/notes/recent",
		Query:  q,
	}, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentLoading = false
	if err != nil {
		s.recentErr = err.Error()
		return err
	}
	s.recent = resp.Notes
	s.recentErr = ""
	return nil
}

// AddNote creates a note and prepends it to the global feed, the user feed,
// the recent list (capped) and, when featured, the featured feed (capped).
// If the new note's category is the currently displayed sidebar category,
// the title list is refetched rather than patched, because the entry needs
// the authoritative slug from the server.
func (s *NoteStore) AddNote(ctx context.Context, in NoteInput) (*Note, error) {
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}
	var resp noteResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/notes/addnote",
		Body:   in,
		Auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	note := resp.Note

	s.mu.Lock()
	s.global.Prepend(note, 0)
	s.user.Prepend(note, 0)
	s.prependRecentLocked(note)
	if note.Featured {
		s.featured.Prepend(note, featuredPageSize)
	}
	s.mu.Unlock()

	if displayed := s.cats.DisplayedCategory(); displayed != "" && displayed == note.Category {
		if err := s.cats.FetchCategoryTitles(ctx, displayed); err != nil {
			s.log.Warn("sidebar refetch after add failed", "category", displayed, "err", err)
		}
	}
	return &note, nil
}

// EditNote updates a note and patches it in place in every collection that
// might hold it; no collection is refetched. The note's previous category
// is resolved from the held collections before the request so a category
// change can be detected: the sidebar title list is refetched for whichever
// affected category is currently displayed, and once when the category did
// not change but matches the displayed one (its title may have changed).
func (s *NoteStore) EditNote(ctx context.Context, id string, in NoteInput) (*Note, error) {
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}

	prevCategory := s.categoryOf(id)

	var resp noteResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "/api/notes/updatenote/" + id,
		Body:   in,
		Auth:   true,
	}, &resp)
	if err != nil {
		return nil, notFoundOr(err, "Post")
	}
	note := resp.Note

	s.mu.Lock()
	s.global.ReplaceByID(note)
	s.user.ReplaceByID(note)
	s.category.ReplaceByID(note)
	s.search.ReplaceByID(note)
	if note.Featured {
		if !s.featured.ReplaceByID(note) {
			s.featured.Prepend(note, featuredPageSize)
		}
	} else {
		s.featured.RemoveByID(note.ID)
	}
	for i := range s.recent {
		if s.recent[i].ID == note.ID {
			s.recent[i] = note
		}
	}
	if s.currentNote != nil && s.currentNote.ID == note.ID {
		held := note
		s.currentNote = &held
	}
	s.mu.Unlock()

	displayed := s.cats.DisplayedCategory()
	if prevCategory != "" && prevCategory != note.Category {
		for _, cat := range []string{prevCategory, note.Category} {
			if displayed == cat {
				if err := s.cats.FetchCategoryTitles(ctx, cat); err != nil {
					s.log.Warn("sidebar refetch after edit failed", "category", cat, "err", err)
				}
			}
		}
	} else if displayed != "" && displayed == note.Category {
		if err := s.cats.FetchCategoryTitles(ctx, displayed); err != nil {
			s.log.Warn("sidebar refetch after edit failed", "category", displayed, "err", err)
		}
	}
	return &note, nil
}

// DeleteNote deletes a note and removes it from every collection uniformly.
// Deletion is a pure removal, so no refetch is triggered anywhere.
func (s *NoteStore) DeleteNote(ctx context.Context, id string) error {
	if err := requireToken(s.tokens); err != nil {
		return err
	}
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   "/api/notes/deletenote/" + id,
		Auth:   true,
	}, nil)
	if err != nil {
		return notFoundOr(err, "Post")
	}

	s.mu.Lock()
	s.global.RemoveByID(id)
	s.user.RemoveByID(id)
	s.featured.RemoveByID(id)
	s.category.RemoveByID(id)
	s.search.RemoveByID(id)
	for i := range s.recent {
		if s.recent[i].ID == id {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			break
		}
	}
	if s.currentNote != nil && s.currentNote.ID == id {
		s.currentNote = nil
	}
	s.mu.Unlock()

	s.cats.RemoveTitle(id)
	return nil
}

// categoryOf resolves a note's category id by scanning every held
// collection, newest-looking first. Empty when the note is not cached.
func (s *NoteStore) categoryOf(id string) string {
	for _, col := range []*feed.Collection[Note]{s.global, s.user, s.category, s.featured, s.search} {
		if n, ok := col.Find(id); ok {
			return n.Category
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recent {
		if s.recent[i].ID == id {
			return s.recent[i].Category
		}
	}
	if s.currentNote != nil && s.currentNote.ID == id {
		return s.currentNote.Category
	}
	return ""
}

func (s *NoteStore) prependRecentLocked(note Note) {
	for i := range s.recent {
		if s.recent[i].ID == note.ID {
			s.recent[i] = note
			return
		}
	}
	s.recent = append([]Note{note}, s.recent...)
	if len(s.recent) > recentLimit {
		s.recent = s.recent[:recentLimit]
	}
}

// Global returns the global feed collection.
func (s *NoteStore) Global() *feed.Collection[Note] { return s.global }

// Featured returns the featured feed collection.
func (s *NoteStore) Featured() *feed.Collection[Note] { return s.featured }

// UserNotes returns the current user's feed collection.
func (s *NoteStore) UserNotes() *feed.Collection[Note] { return s.user }

// Search returns the search result collection.
func (s *NoteStore) Search() *feed.Collection[Note] { return s.search }

// CategoryFeed returns the category feed collection and the category id it
// is currently keyed by.
func (s *NoteStore) CategoryFeed() (*feed.Collection[Note], string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category, s.categoryID
}

// SearchQuery returns the query the search collection is keyed by.
func (s *NoteStore) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQuery
}

// Recent returns the recent-posts list.
func (s *NoteStore) Recent() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Note(nil), s.recent...)
}

// RecentErr returns the recorded recent-list fetch error.
func (s *NoteStore) RecentErr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentErr
}

// CurrentNote returns the note loaded by FetchNoteBySlug, nil when absent.
func (s *NoteStore) CurrentNote() *Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentNote == nil {
		return nil
	}
	held := *s.currentNote
	return &held
}

// NoteLoading reports whether a single-note fetch is in flight.
func (s *NoteStore) NoteLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteLoading
}

// NoteErr returns the recorded single-note fetch error.
func (s *NoteStore) NoteErr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteErr
}
