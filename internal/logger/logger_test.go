package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DebugLevel, "WARN": WarnLevel, "error": ErrorLevel, "bogus": InfoLevel}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTextOutputFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	Init("warn", "text")
	SetOutput(&buf)

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("text lines should carry the caller's file: %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "json")
	SetOutput(&buf)

	Debug("skipped %d rows", 3)

	var e entry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &e); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if e.Level != "debug" || e.Msg != "skipped 3 rows" {
		t.Errorf("unexpected entry: %+v", e)
	}
}
