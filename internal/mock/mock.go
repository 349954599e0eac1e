// Package mock provides a scripted transport for store tests: handlers are
// matched by method and path prefix, every request is recorded, and call
// counts per endpoint back the "zero network calls" and "exactly N
// requests" assertions.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

type handler struct {
	method     string
	pathPrefix string
	fn         func(req *transport.Request) (any, error)
}

// Transport is a scripted transport.Transport.
type Transport struct {
	mu       sync.Mutex
	handlers []handler
	requests []transport.Request
}

func New() *Transport {
	return &Transport{}
}

// Handle registers a responder for requests matching method and path
// prefix. Handlers are consulted in registration order; fn's result is
// JSON round-tripped into the caller's out value, or its error returned.
func (m *Transport) Handle(method, pathPrefix string, fn func(req *transport.Request) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler{method: method, pathPrefix: pathPrefix, fn: fn})
}

// Reply registers a fixed response body for matching requests.
func (m *Transport) Reply(method, pathPrefix string, body any) {
	m.Handle(method, pathPrefix, func(*transport.Request) (any, error) {
		return body, nil
	})
}

// Fail registers a fixed error for matching requests.
func (m *Transport) Fail(method, pathPrefix string, err error) {
	m.Handle(method, pathPrefix, func(*transport.Request) (any, error) {
		return nil, err
	})
}

func (m *Transport) Do(ctx context.Context, req *transport.Request, out any) error {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	var h *handler
	for i := range m.handlers {
		if m.handlers[i].method == req.Method && strings.HasPrefix(req.Path, m.handlers[i].pathPrefix) {
			h = &m.handlers[i]
			break
		}
	}
	m.mu.Unlock()

	if h == nil {
		return fmt.Errorf("mock: no handler for %s %s", req.Method, req.Path)
	}
	body, err := h.fn(req)
	if err != nil {
		return err
	}
	if out == nil || body == nil {
		return nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("mock: encoding response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("mock: decoding response: %w", err)
	}
	return nil
}

// Requests returns a copy of every request seen, in order.
func (m *Transport) Requests() []transport.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transport.Request(nil), m.requests...)
}

// Calls counts requests matching method and path prefix.
func (m *Transport) Calls(method, pathPrefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// Total counts every request seen.
func (m *Transport) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
