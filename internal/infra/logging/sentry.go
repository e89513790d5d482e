package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryHandler forwards records at or above a level to Sentry and passes every
// record on to the wrapped handler.
type SentryHandler struct {
	next         slog.Handler
	hub          *sentry.Hub
	level        slog.Level
	attrs        []slog.Attr
	group        string
	flushTimeout time.Duration
}

// NewSentryHandler wraps next. A nil hub uses the current global hub.
func NewSentryHandler(next slog.Handler, hub *sentry.Hub, level slog.Level) *SentryHandler {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryHandler{
		next:         next,
		hub:          hub,
		level:        level,
		flushTimeout: 2 * time.Second,
	}
}

func (h *SentryHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level || h.next.Enabled(ctx, l)
}

func (h *SentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		h.capture(r)
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *SentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	clone.next = h.next.WithAttrs(attrs)
	return clone
}

func (h *SentryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	clone.next = h.next.WithGroup(name)
	return clone
}

// Flush waits for queued events to be sent.
func (h *SentryHandler) Flush() {
	h.hub.Flush(h.flushTimeout)
}

func (h *SentryHandler) capture(r slog.Record) {
	extras := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		extras[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		a = h.qualify(a)
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		extras[a.Key] = v
		return true
	})

	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extras)
		scope.SetLevel(sentryLevel(r.Level))
		if chain, ok := extras["chain"].(string); ok {
			scope.SetTag("chain", chain)
		}
		if pool, ok := extras["pool"].(string); ok {
			scope.SetTag("pool", pool)
		}
		h.hub.CaptureMessage(r.Message)
	})
}

func (h *SentryHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" {
		a.Key = h.group + "." + a.Key
	}
	return a
}

func (h *SentryHandler) clone() *SentryHandler {
	attrs := make([]slog.Attr, len(h.attrs))
	copy(attrs, h.attrs)
	return &SentryHandler{
		next:         h.next,
		hub:          h.hub,
		level:        h.level,
		attrs:        attrs,
		group:        h.group,
		flushTimeout: h.flushTimeout,
	}
}

func sentryLevel(l slog.Level) sentry.Level {
	switch {
	case l >= slog.LevelError:
		return sentry.LevelError
	case l >= slog.LevelWarn:
		return sentry.LevelWarning
	case l >= slog.LevelInfo:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
