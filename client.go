package inkwell

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

// Config collects everything needed to build a Client. NewConfig fills in
// working defaults; zero-value fields are replaced at construction.
type Config struct {
	// BaseURL is the API origin, e.g. "https://api.inkwell.example".
	BaseURL string

	// Tokens persists the bearer token. Defaults to an in-memory store.
	Tokens token.Store

	// Logger receives SDK diagnostics. Defaults to a no-op logger.
	Logger logger.Logger

	// HTTPClient overrides the underlying HTTP client when set.
	HTTPClient *http.Client

	// Timeout applies to every request when HTTPClient is not set.
	Timeout time.Duration
}

// NewConfig creates a Config with defaults for the given API base URL.
func NewConfig(baseURL string) *Config {
	return &Config{
		BaseURL: baseURL,
		Tokens:  token.NewMemory(),
		Logger:  logger.Nop{},
	}
}

// Client is the entry point to the SDK: one store per concern, all sharing
// a transport and a token store.
type Client struct {
	Categories    *CategoryStore
	Notes         *NoteStore
	Session       *SessionStore
	Consultations *ConsultationStore

	tokens token.Store
}

// New builds a Client from a Config.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url not set")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = token.NewMemory()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop{}
	}

	t := transport.NewHTTP(cfg.BaseURL, tokens).SetLogger(log)
	if cfg.HTTPClient != nil {
		t.SetHTTPClient(cfg.HTTPClient)
	} else if cfg.Timeout > 0 {
		t.SetTimeout(cfg.Timeout)
	}

	return FromTransport(t, tokens, log), nil
}

// FromTransport builds a Client on an existing Transport. Tests use this to
// plug in a scripted transport.
func FromTransport(t transport.Transport, tokens token.Store, log logger.Logger) *Client {
	if tokens == nil {
		tokens = token.NewMemory()
	}
	if log == nil {
		log = logger.Nop{}
	}
	cats := NewCategoryStore(t, tokens, log)
	return &Client{
		Categories:    cats,
		Notes:         NewNoteStore(t, tokens, cats, log),
		Session:       NewSessionStore(t, tokens, log),
		Consultations: NewConsultationStore(t, tokens, log),
		tokens:        tokens,
	}
}

// Tokens exposes the token store the client was built with.
func (c *Client) Tokens() token.Store { return c.tokens }

// requireToken fails fast with ErrAuthRequired when no token is persisted,
// before any network call is made.
func requireToken(tokens token.Store) error {
	tok, err := tokens.Token()
	if err != nil {
		return err
	}
	if tok == "" {
		return ErrAuthRequired
	}
	return nil
}
