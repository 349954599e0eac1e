// Package zero adapts zerolog to the logger.Logger interface.
package zero

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

type Handler struct {
	logger zerolog.Logger
}

// New creates a Handler writing to w with timestamps attached.
func New(w io.Writer) *Handler {
	return &Handler{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// FromLogger wraps an existing zerolog.Logger.
func FromLogger(l zerolog.Logger) *Handler {
	return &Handler{logger: l}
}

func (h *Handler) Error(msg string, args ...any) {
	h.emit(h.logger.Error(), msg, args)
}

func (h *Handler) Warn(msg string, args ...any) {
	h.emit(h.logger.Warn(), msg, args)
}

func (h *Handler) Info(msg string, args ...any) {
	h.emit(h.logger.Info(), msg, args)
}

func (h *Handler) Debug(msg string, args ...any) {
	h.emit(h.logger.Debug(), msg, args)
}

// emit attaches key/value pairs to the event. A trailing key without a value
// is logged under the "arg" key rather than dropped.
func (h *Handler) emit(e *zerolog.Event, msg string, args []any) {
	i := 0
	for ; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		e = e.Interface(key, args[i+1])
	}
	if i < len(args) {
		e = e.Interface("arg", args[i])
	}
	e.Msg(msg)
}
