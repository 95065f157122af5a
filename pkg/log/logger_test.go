package log

import (
	"bytes"
	"context"
	"encoding/json"
	stdlog "log"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(&buf))), &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{})
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn missing: %q", out)
	}
}

func TestJSONFormatterFields(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &JSONFormatter{})
	l.With(Component("events")).Info("put", Int("bytes", 12), Str("key", "k"))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got["component"] != "events" || got["key"] != "k" || got["msg"] != "put" {
		t.Fatalf("unexpected entry: %v", got)
	}
	if got["level"] != "INFO" {
		t.Fatalf("level: %v", got["level"])
	}
}

func TestSetLevelAffectsChildren(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	child := l.WithComponent("dispatch")
	l.SetLevel(ErrorLevel)
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected child to observe new level, got %q", buf.String())
	}
}

func TestWithContextRequestID(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &TextFormatter{})
	ctx := ContextWithRequestID(context.Background(), "abc")
	l.WithContext(ctx).Debug("exchange")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Fatalf("missing request id: %q", buf.String())
	}
}

func TestApplyConfigRedacts(t *testing.T) {
	l, err := ApplyConfig(&Config{Level: "debug", Format: "text", Outputs: []string{"null"}, Redact: []string{"secret"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var buf bytes.Buffer
	bl := l.(*BaseLogger)
	bl.outputs = append(bl.outputs, NewWriterOutput(&buf))
	l.Info("x", Str("secret", "hunter2"))
	if strings.Contains(buf.String(), "hunter2") || !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("redaction failed: %q", buf.String())
	}
}

func TestApplyConfigRejectsUnknown(t *testing.T) {
	if _, err := ApplyConfig(&Config{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"", InfoLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestRedirectStdLog(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	prev := stdlog.Writer()
	t.Cleanup(func() { stdlog.SetOutput(prev) })
	RedirectStdLog(l)
	stdlog.Print("from stdlib")
	if !strings.Contains(buf.String(), "from stdlib") || !strings.Contains(buf.String(), "component=stdlog") {
		t.Fatalf("stdlib output not redirected: %q", buf.String())
	}
}
