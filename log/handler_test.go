package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFormatterHandlerWritesOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	h := NewFormatterHandler(&buf, &JSONFormatter{}, slog.LevelInfo)
	logger := slog.New(h)
	logger.Info("hello", "k", "v")

	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("expected JSON-formatted output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Fatalf("expected the attribute to be included, got %q", buf.String())
	}
}

func TestFormatterHandlerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewFormatterHandler(&buf, &TextFormatter{}, slog.LevelWarn)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected LevelInfo to be filtered out below a LevelWarn floor")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected LevelError to pass a LevelWarn floor")
	}
}

func TestFormatterHandlerWithAttrsPersistsAcrossRecords(t *testing.T) {
	var buf bytes.Buffer
	h := NewFormatterHandler(&buf, &TextFormatter{}, slog.LevelInfo)
	withModule := h.WithAttrs([]slog.Attr{slog.String("module", "game")})
	logger := slog.New(withModule)

	logger.Info("first")
	logger.Info("second")

	out := buf.String()
	if strings.Count(out, "module=game") != 2 {
		t.Fatalf("expected module=game on every record, got %q", out)
	}
}

func TestFormatterHandlerWithGroupPrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewFormatterHandler(&buf, &TextFormatter{}, slog.LevelInfo)
	grouped := h.WithGroup("engine")
	slog.New(grouped).Info("tick", "slot", 5)

	if !strings.Contains(buf.String(), "engine.slot=5") {
		t.Fatalf("expected a group-prefixed key, got %q", buf.String())
	}
}

func TestSlogLevelMapping(t *testing.T) {
	cases := []struct {
		in   slog.Level
		want LogLevel
	}{
		{slog.LevelDebug, DEBUG},
		{slog.LevelInfo, INFO},
		{slog.LevelWarn, WARN},
		{slog.LevelError, ERROR},
	}
	for _, c := range cases {
		if got := slogLevel(c.in); got != c.want {
			t.Fatalf("slogLevel(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
