package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/token"
)

const authTokenHeader = "auth-token"

// HTTP is the production Transport. It wraps a single *http.Client and
// attaches the auth-token header from the token store when requested.
type HTTP struct {
	baseURL    string
	httpClient *http.Client
	tokens     token.Store
	log        logger.Logger
}

// NewHTTP creates an HTTP transport for the given API base URL
// (e.g. "https://api.example.com"). A default 10 second timeout is set to
// avoid hanging requests.
func NewHTTP(baseURL string, tokens token.Store) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		tokens: tokens,
		log:    logger.Nop{},
	}
}

func (h *HTTP) SetTimeout(timeout time.Duration) *HTTP {
	h.httpClient.Timeout = timeout
	return h
}

func (h *HTTP) SetHTTPClient(client *http.Client) *HTTP {
	h.httpClient = client
	return h
}

func (h *HTTP) SetLogger(log logger.Logger) *HTTP {
	h.log = log
	return h
}

func (h *HTTP) Do(ctx context.Context, req *Request, out any) error {
	if h.baseURL == "" {
		return fmt.Errorf("base url not set")
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	u := h.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	if req.Auth {
		tok, err := h.tokens.Token()
		if err != nil {
			return err
		}
		if tok == "" {
			return ErrAuthRequired
		}
		httpReq.Header.Set(authTokenHeader, tok)
	}

	h.log.Debug("api request", "method", req.Method, "path", req.Path)

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("reading response: %v", err)}
	}

	h.log.Debug("api response", "method", req.Method, "path", req.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "unexpected response from server"}
	}
	return nil
}

func encodeBody(req *Request) (io.Reader, string, error) {
	switch {
	case req.Upload != nil:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range req.Upload.Fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		part, err := w.CreateFormFile(req.Upload.Field, req.Upload.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, req.Upload.Content); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	default:
		return http.NoBody, "", nil
	}
}

// errorBody covers the error shapes the API is known to produce: a plain
// message, an error string, or express-validator style field errors.
type errorBody struct {
	Message string `json:"message"`
	Err     string `json:"error"`
	Errors  []struct {
		Msg   string `json:"msg"`
		Param string `json:"param"`
		Path  string `json:"path"`
	} `json:"errors"`
}

func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if len(eb.Errors) > 0 {
			msgs := make([]string, 0, len(eb.Errors))
			for _, fe := range eb.Errors {
				msgs = append(msgs, fe.Msg)
			}
			return &ValidationError{StatusCode: status, Messages: msgs}
		}
		if eb.Message != "" {
			return &APIError{StatusCode: status, Message: eb.Message}
		}
		if eb.Err != "" {
			return &APIError{StatusCode: status, Message: eb.Err}
		}
	}
	return &APIError{StatusCode: status}
}
