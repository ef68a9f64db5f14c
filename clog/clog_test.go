package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(&Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestLogger_NamespaceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "debug", WithNamespace("city"))

	logger.WithNamespace("store").With(String("driver", "sqlite")).
		Info("city created", String("name", "Paris"), Error(errors.New("boom")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "city.store", lines[0][NamespaceKey])
	assert.Equal(t, "sqlite", lines[0]["driver"])
	assert.Equal(t, "Paris", lines[0]["name"])
	assert.Equal(t, "boom", lines[0]["err_msg"])
	assert.Equal(t, "info", lines[0]["level"])
}

func TestLogger_SetLevelSharedByChildren(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter(&buf, "info")
	child := root.WithNamespace("weather")

	child.Debug("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, root.SetLevel(DebugLevel))
	child.Debug("visible")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["msg"])
}

func TestLogger_StandardContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "info", WithStandardContext())

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-1")

	logger.InfoContext(ctx, "request handled")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", lines[0]["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", lines[0]["span_id"])
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": DebugLevel, "INFO": InfoLevel, "warning": WarnLevel, "error": ErrorLevel, "fatal": FatalLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, "warn", WarnLevel.String())
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.NotPanics(t, func() {
		l.With(String("k", "v")).WithNamespace("x").Error("ignored")
		_ = l.SetLevel(DebugLevel)
		l.Flush()
	})
}
