package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"text":  FormatText,
		"TINT":  FormatText,
		"human": FormatText,
		"json":  FormatJSON,
		"auto":  FormatAuto,
		"":      FormatAuto,
		"xml":   FormatAuto,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsTTYBuffer(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Fatal("a bytes.Buffer is not a terminal")
	}
}

func TestSetLevelAppliesToHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, FormatJSON, slog.LevelInfo)
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelDebug) {
		t.Fatal("debug should be disabled at info")
	}

	SetLevel(slog.LevelDebug)
	if !h.Enabled(ctx, slog.LevelDebug) {
		t.Fatal("debug should be enabled after SetLevel(debug)")
	}
	if Level() != slog.LevelDebug {
		t.Fatalf("expected Level() debug, got %v", Level())
	}

	slog.New(h).Debug("probe", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"probe"`) {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short"); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}
	long := strings.Repeat("é", 200)
	got := Preview(long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := len([]rune(got)); n != previewLen+1 {
		t.Fatalf("expected %d runes, got %d", previewLen+1, n)
	}
}
