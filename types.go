package inkwell

import "time"

// Role is a user's authorization level. Role checks belong to callers; the
// stores only care whether a token is present.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// User is the authenticated identity derived from the bearer token.
type User struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Country        string    `json:"country,omitempty"`
	City           string    `json:"city,omitempty"`
	About          string    `json:"about,omitempty"`
	Date           time.Time `json:"date"`
}

// IsAdmin reports whether the user may perform admin mutations.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleSuperAdmin)
}

// Category is one node of the category forest. Parent is nil for roots.
// Children is populated only in the nested tree representation.
type Category struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Parent      *string    `json:"parent,omitempty"`
	Children    []Category `json:"children,omitempty"`
}

// CategoryInput is the payload for category create/update mutations.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parent      *string `json:"parent,omitempty"`
}

// Note is a single authored note. Description is an opaque formatted-text
// blob; the SDK never interprets it. Slug is the canonical key for public
// permalink lookups, ID for everything else.
type Note struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tag         string    `json:"tag,omitempty"`
	Category    string    `json:"category"`
	User        string    `json:"user"`
	Date        time.Time `json:"date"`
	Featured    bool      `json:"featured,omitempty"`
	ReadTime    int       `json:"readTime,omitempty"`
	Slug        string    `json:"slug,omitempty"`
}

// NoteInput is the payload for note create/update mutations.
type NoteInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag,omitempty"`
	Category    string `json:"category"`
	Featured    bool   `json:"featured,omitempty"`
}

// NoteTitle is the lightweight title/slug pair served by the sidebar title
// endpoint. It carries no body, so title lists are refetched rather than
// patched when a note changes.
type NoteTitle struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
}

// Consultation is a visitor-submitted consultation request, managed by
// admins.
type Consultation struct {
	ID      string    `json:"_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Message string    `json:"message"`
	Status  string    `json:"status"`
	Date    time.Time `json:"date"`
}

// ConsultationInput is the payload for submitting a consultation request.
type ConsultationInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Consultation statuses as served by the API.
const (
	ConsultationPending  = "pending"
	ConsultationResolved = "resolved"
)

// Response envelopes. The API wraps every payload in {success, ...}.

type categoryTreeResponse struct {
	Success      bool       `json:"success"`
	CategoryTree []Category `json:"categoryTree"`
}

type categoryResponse struct {
	Success  bool     `json:"success"`
	Category Category `json:"category"`
}

type noteTitlesResponse struct {
	Success bool        `json:"success"`
	Notes   []NoteTitle `json:"notes"`
}

type notesPageResponse struct {
	Success    bool   `json:"success"`
	Notes      []Note `json:"notes"`
	HasMore    bool   `json:"hasMore"`
	NextLastID string `json:"nextLastId"`
}

type notesResponse struct {
	Success bool   `json:"success"`
	Notes   []Note `json:"notes"`
}

type noteResponse struct {
	Success bool `json:"success"`
	Note    Note `json:"note"`
}

type authTokenResponse struct {
	Success   bool   `json:"success"`
	AuthToken string `json:"authtoken"`
}

type userResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type consultationsPageResponse struct {
	Success       bool           `json:"success"`
	Consultations []Consultation `json:"consultations"`
	HasMore       bool           `json:"hasMore"`
	NextLastID    string         `json:"nextLastId"`
}

type consultationResponse struct {
	Success      bool         `json:"success"`
	Consultation Consultation `json:"consultation"`
}
