package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_TextAndJSON(t *testing.T) {
	var text, js bytes.Buffer
	ctx := context.Background()

	New(&text, "development", "info").Info(ctx, "hello", "k", "v")
	New(&js, "production", "info").Info(ctx, "hello", "k", "v")

	assert.Contains(t, text.String(), "msg=hello")
	assert.Contains(t, text.String(), "k=v")
	assert.Contains(t, js.String(), `"msg":"hello"`)
	assert.Contains(t, js.String(), `"k":"v"`)
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "development", "warn")
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")

	out := buf.String()
	assert.NotContains(t, out, "msg=dbg")
	assert.NotContains(t, out, "msg=inf")
	assert.Contains(t, out, "msg=wrn")
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "development", "debug").With("request_id", "abc")
	log.Error(context.Background(), "failed", "op", "login")

	for _, want := range []string{"level=ERROR", "request_id=abc", "op=login"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in output, got:\n%s", want, buf.String())
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
