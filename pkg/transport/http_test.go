package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

func TestHTTPDoDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "9", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"value":"hello"}`)
	}))
	defer srv.Close()

	h := transport.NewHTTP(srv.URL, token.NewMemory())
	var out struct {
		Success bool   `json:"success"`
		Value   string `json:"value"`
	}
	err := h.Do(context.Background(), &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/notes/fetchNextNote",
		Query:  map[string][]string{"limit": {"9"}},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "hello", out.Value)
}

func TestHTTPDoAuthHeader(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("auth-token")
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	tokens := token.NewMemory()
	require.NoError(t, tokens.SetToken("secret-token"))

	h := transport.NewHTTP(srv.URL, tokens)
	err := h.Do(context.Background(), &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/getuser",
		Auth:   true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", gotToken)
}

func TestHTTPDoAuthRequiredShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	h := transport.NewHTTP(srv.URL, token.NewMemory())
	err := h.Do(context.Background(), &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/notes/addnote",
		Auth:   true,
	}, nil)
	assert.ErrorIs(t, err, transport.ErrAuthRequired)
	assert.Zero(t, calls, "no network call may be made without a token")
}

func TestHTTPDoErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"success":false,"error":"no such thing"}`)
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"success":false,"error":"invalid token"}`)
		case "/invalid":
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"errors":[{"msg":"Title too short","param":"title"},{"msg":"Description required","param":"description"}]}`)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `not json at all`)
		}
	}))
	defer srv.Close()

	h := transport.NewHTTP(srv.URL, token.NewMemory())
	do := func(path string) error {
		return h.Do(context.Background(), &transport.Request{Method: http.MethodGet, Path: path}, nil)
	}

	t.Run("404 is APIError with NotFound", func(t *testing.T) {
		err := do("/missing")
		require.Error(t, err)
		assert.True(t, transport.IsNotFound(err))
		assert.Contains(t, err.Error(), "no such thing")
	})

	t.Run("401 is APIError with Unauthorized", func(t *testing.T) {
		err := do("/unauthorized")
		require.Error(t, err)
		assert.True(t, transport.IsUnauthorized(err))
	})

	t.Run("field errors join into one message", func(t *testing.T) {
		err := do("/invalid")
		var verr *transport.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Title too short, Description required", verr.Error())
	})

	t.Run("non-JSON body falls back to status text", func(t *testing.T) {
		err := do("/broken")
		var apiErr *transport.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestHTTPDoJSONBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	h := transport.NewHTTP(srv.URL, token.NewMemory())
	err := h.Do(context.Background(), &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/consultations",
		Body:   map[string]string{"name": "Ada"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
}

func TestHTTPDoMultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("profilePicture")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "avatar.png", header.Filename)
		assert.Equal(t, "fake image bytes", string(data))
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	tokens := token.NewMemory()
	require.NoError(t, tokens.SetToken("tok"))
	h := transport.NewHTTP(srv.URL, tokens)
	err := h.Do(context.Background(), &transport.Request{
		Method: http.MethodPut,
		Path:   "/api/auth/profile/picture",
		Upload: &transport.Upload{
			Field:    "profilePicture",
			Filename: "avatar.png",
			Content:  strings.NewReader("fake image bytes"),
		},
		Auth: true,
	}, nil)
	require.NoError(t, err)
}

func TestHTTPDoUnexpectedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>definitely not json</html>`)
	}))
	defer srv.Close()

	h := transport.NewHTTP(srv.URL, token.NewMemory())
	var out struct{}
	err := h.Do(context.Background(), &transport.Request{Method: http.MethodGet, Path: "/"}, &out)
	var apiErr *transport.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "unexpected response")
}
