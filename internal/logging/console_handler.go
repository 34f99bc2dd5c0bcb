package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// infoHighlightKeys are printed first, in this order, on info and above.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	"status",
	"call_status",
	"error",
	FieldErrorHint,
	FieldImpact,
	"attendee",
	"report_id",
	"report_path",
	"elapsed",
}

type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var c fieldCollector
	for _, attr := range h.attrs {
		c.add(h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		c.add(h.groups, attr)
		return true
	})

	var component, handle, stage string
	fields := make([]kv, 0, len(c.fields))
	for _, field := range c.fields {
		switch field.key {
		case FieldComponent:
			component = attrString(field.value)
		case FieldCallHandle:
			handle = attrString(field.value)
		case FieldStage:
			stage = attrString(field.value)
		default:
			fields = append(fields, field)
		}
	}

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.Grow(256 + len(fields)*32)
	writeLogHeader(&buf, timestamp, record.Level, component, handle, stage, message, h.addSource, record.Source())
	buf.WriteByte('\n')
	if record.Level >= slog.LevelInfo {
		fields = orderInfoFields(fields)
	}
	for _, kv := range fields {
		buf.WriteString("    - ")
		buf.WriteString(kv.key)
		buf.WriteString(": ")
		buf.WriteString(formatValue(kv.value))
		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func writeLogHeader(buf *bytes.Buffer, ts time.Time, level slog.Level, component, handle, stage, message string, addSource bool, src *slog.Source) {
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(level))
	if component != "" {
		buf.WriteString(" [")
		buf.WriteString(component)
		buf.WriteByte(']')
	}
	if subject := composeSubject(handle, stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	if addSource && src != nil {
		buf.WriteString(" [")
		buf.WriteString(filepath.Base(src.File))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(src.Line))
		buf.WriteByte(']')
	}
}

func composeSubject(handle, stage string) string {
	handle = strings.TrimSpace(handle)
	stage = strings.TrimSpace(stage)
	switch {
	case handle != "" && stage != "":
		return "Call " + handle + " (" + stage + ")"
	case handle != "":
		return "Call " + handle
	default:
		return stage
	}
}

func orderInfoFields(fields []kv) []kv {
	if len(fields) < 2 {
		return fields
	}
	ordered := make([]kv, 0, len(fields))
	used := make([]bool, len(fields))
	for _, key := range infoHighlightKeys {
		for idx, field := range fields {
			if !used[idx] && field.key == key {
				used[idx] = true
				ordered = append(ordered, field)
			}
		}
	}
	for idx, field := range fields {
		if !used[idx] {
			ordered = append(ordered, field)
		}
	}
	return ordered
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *prettyHandler) clone() *prettyHandler {
	clone := *h
	clone.attrs = slices.Clone(h.attrs)
	clone.groups = slices.Clone(h.groups)
	return &clone
}

type kv struct {
	key   string
	value slog.Value
}

// fieldCollector flattens groups into dotted keys. A repeated key keeps its
// first position and takes the latest value.
type fieldCollector struct {
	fields []kv
	index  map[string]int
}

func (c *fieldCollector) add(prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix = append(slices.Clone(prefix), attr.Key)
		}
		for _, member := range value.Group() {
			c.add(prefix, member)
		}
		return
	}
	key := strings.Join(append(slices.Clone(prefix), attr.Key), ".")
	if key == "" {
		return
	}
	value = redact(slog.Attr{Key: key, Value: value}).Value
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if pos, ok := c.index[key]; ok {
		c.fields[pos].value = value
		return
	}
	c.index[key] = len(c.fields)
	c.fields = append(c.fields, kv{key: key, value: value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
