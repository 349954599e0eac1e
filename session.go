package inkwell

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

// SessionState is the tri-state outcome of loading the session.
type SessionState int

const (
	// SessionLoading means no identity fetch has completed yet.
	SessionLoading SessionState = iota
	// SessionAuthenticated means a user identity is held.
	SessionAuthenticated
	// SessionAnonymous means no token is present or the token was rejected.
	SessionAnonymous
)

// SessionStore holds the authenticated identity derived from the bearer
// token. Token persistence is decoupled (pkg/token); losing the token —
// locally, externally, or via a 401 from the identity endpoint — clears the
// in-memory identity synchronously.
type SessionStore struct {
	mu     sync.Mutex
	t      transport.Transport
	tokens token.Store
	log    logger.Logger

	user  *User
	state SessionState
}

// NewSessionStore creates a SessionStore. Callers using a watchable token
// store should register HandleTokenLoss with it.
func NewSessionStore(t transport.Transport, tokens token.Store, log logger.Logger) *SessionStore {
	if log == nil {
		log = logger.Nop{}
	}
	return &SessionStore{t: t, tokens: tokens, log: log, state: SessionLoading}
}

// Load derives the identity from the persisted token. Absent token means
// anonymous without a network call; a 401 clears the token and the
// identity.
func (s *SessionStore) Load(ctx context.Context) error {
	tok, err := s.tokens.Token()
	if err != nil {
		return err
	}
	if tok == "" {
		s.setAnonymous()
		return nil
	}

	var resp userResponse
	err = s.t.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/getuser",
		Auth:   true,
	}, &resp)
	if err != nil {
		if transport.IsUnauthorized(err) {
			s.log.Info("stored token rejected, clearing session")
			if clearErr := s.tokens.Clear(); clearErr != nil {
				s.log.Warn("clearing token failed", "err", clearErr)
			}
			s.setAnonymous()
			return nil
		}
		return err
	}
	s.setUser(resp.User)
	return nil
}

// Login exchanges credentials for a token, persists it and loads the
// identity.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*User, error) {
	return s.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignupInput is the payload for account creation.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account, persists the returned token and loads the
// identity.
func (s *SessionStore) Signup(ctx context.Context, in SignupInput) (*User, error) {
	return s.authenticate(ctx, "/api/auth/createuser", in)
}

// GoogleLogin exchanges a Google ID token for a session.
func (s *SessionStore) GoogleLogin(ctx context.Context, idToken string) (*User, error) {
	return s.authenticate(ctx, "/api/auth/google-login", map[string]string{
		"credential": idToken,
	})
}

func (s *SessionStore) authenticate(ctx context.Context, path string, body any) (*User, error) {
	var resp authTokenResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.SetToken(resp.AuthToken); err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	u, _ := s.User()
	return u, nil
}

// Logout is a pure local operation: it removes the token and clears the
// identity synchronously. No server call is made.
func (s *SessionStore) Logout() error {
	err := s.tokens.Clear()
	s.setAnonymous()
	return err
}

// HandleTokenLoss clears the in-memory identity. Register it with a
// watchable token store so an external token removal logs the session out.
func (s *SessionStore) HandleTokenLoss() {
	s.log.Info("token lost externally, clearing session")
	s.setAnonymous()
}

// ProfileInput is the payload for profile mutation. Empty fields are left
// unchanged by the server.
type ProfileInput struct {
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	About   string `json:"about,omitempty"`
}

// UpdateProfile mutates the current user's profile and replaces the held
// identity with the server's copy.
func (s *SessionStore) UpdateProfile(ctx context.Context, in ProfileInput) (*User, error) {
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}
	var resp userResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "/api/auth/profile",
		Body:   in,
		Auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s.setUser(resp.User)
	return &resp.User, nil
}

// UploadProfilePicture uploads a new profile picture as multipart form data
// and replaces the held identity with the server's copy.
func (s *SessionStore) UploadProfilePicture(ctx context.Context, filename string, content io.Reader) (*User, error) {
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}
	var resp userResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "/api/auth/profile/picture",
		Upload: &transport.Upload{
			Field:    "profilePicture",
			Filename: filename,
			Content:  content,
		},
		Auth: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s.setUser(resp.User)
	return &resp.User, nil
}

// User returns the held identity (nil when not authenticated) and the
// session state.
func (s *SessionStore) User() (*User, SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, s.state
	}
	held := *s.user
	return &held, s.state
}

func (s *SessionStore) setUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	s.state = SessionAuthenticated
}

func (s *SessionStore) setAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.state = SessionAnonymous
}
