package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// poster is the subset of *fluent.Fluent used by FluentHandler.
type poster interface {
	Post(tag string, message interface{}) error
}

// FluentHandler forwards log records to Fluent Bit. The record level
// (lower-cased) is used as the tag, so routing is "<prefix>.info" etc.
type FluentHandler struct {
	client poster
	level  slog.Level
	attrs  []slog.Attr
	group  string
}

// NewFluentClient connects to a Fluent Bit forward input.
// The connection is lazy: errors surface on the first Post.
func NewFluentClient(host string, port int, tagPrefix string) (*fluent.Fluent, error) {
	if tagPrefix == "" {
		return nil, fmt.Errorf("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		TagPrefix:  tagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fluent client: %w", err)
	}
	return client, nil
}

// NewFluentHandler creates a handler posting records at or above level.
func NewFluentHandler(client poster, level slog.Level) *FluentHandler {
	return &FluentHandler{client: client, level: level}
}

// Enabled implements slog.Handler.
func (h *FluentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *FluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]interface{}, r.NumAttrs()+len(h.attrs)+3)
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[h.key(a.Key)] = a.Value.Resolve().Any()
		return true
	})
	data["level"] = r.Level.String()
	data["message"] = r.Message
	data["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)

	return h.client.Post(strings.ToLower(r.Level.String()), data)
}

// WithAttrs implements slog.Handler.
func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &next
}

// WithGroup implements slog.Handler.
func (h *FluentHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *FluentHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}
