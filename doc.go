// Package inkwell is a client SDK for the Inkwell blog/notes REST API.
//
// It provides typed stores that cache, paginate and keep note and category
// collections consistent on the client side:
//
//   - CategoryStore: the category forest, its flattened projection, and
//     lazily loaded per-category note-title lists.
//   - NoteStore: the paginated note feeds (global, per-category, featured,
//     user-owned, search, single note by slug, recent) with duplicate-free
//     merging and mutation fan-out across all of them.
//   - SessionStore: the identity derived from the persisted bearer token.
//   - ConsultationStore: visitor consultation requests and their admin
//     workflow.
//
// Build a client with New:
//
//	c, err := inkwell.New(inkwell.NewConfig("https://api.inkwell.example"))
//	if err != nil { ... }
//	if err := c.Notes.FetchNextNotes(ctx, false); err != nil { ... }
//	for _, n := range c.Notes.Global().Items() { ... }
//
// Read operations record failures as store state (and stop pagination);
// mutations return typed errors and require a persisted token, failing with
// ErrAuthRequired before any network call when none is present.
package inkwell
