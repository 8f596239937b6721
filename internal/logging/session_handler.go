package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID identifies one CLI invocation across console and file logs.
const FieldSessionID = "session_id"

// sessionHandler stamps session_id on every record and copies run_id and
// folder from the record context when the logger was not built with them.
type sessionHandler struct {
	base      slog.Handler
	sessionID string
	bound     map[string]bool
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionHandler{base: base, sessionID: sessionID}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.sessionID != "" {
		record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	}
	for _, attr := range ContextFields(ctx) {
		if !h.bound[attr.Key] {
			record.AddAttrs(attr)
		}
	}
	return h.base.Handle(ctx, record)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]bool, len(h.bound)+len(attrs))
	for key := range h.bound {
		bound[key] = true
	}
	for _, attr := range attrs {
		bound[attr.Key] = true
	}
	return &sessionHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID, bound: bound}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	return &sessionHandler{base: h.base.WithGroup(name), sessionID: h.sessionID, bound: h.bound}
}
