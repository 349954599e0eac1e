// Package token persists the bearer token used by the Inkwell API.
//
// Token persistence is deliberately decoupled from the session store: the
// token may be removed out of band (another process, a manual delete) and
// the session must notice and drop its in-memory identity.
package token

import "sync"

// Store holds the auth token. An empty token with a nil error means
// "no token present".
type Store interface {
	Token() (string, error)
	SetToken(tok string) error
	Clear() error
}

// Memory is an in-process Store.
type Memory struct {
	mu  sync.Mutex
	tok string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, nil
}

func (m *Memory) SetToken(tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = tok
	return nil
}

func (m *Memory) Clear() error {
	return m.SetToken("")
}
