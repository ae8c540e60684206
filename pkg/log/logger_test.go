// Structured logging tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(prefix string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(prefix)
	logger.SetWriter(&buf)
	logger.SetColorize(false)
	return logger, &buf
}

func TestLoggerBasic(t *testing.T) {
	logger, buf := newTestLogger("wear")
	logger.Info("inserted %d points", 2)

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "wear:") {
		t.Errorf("expected prefix 'wear:', got: %s", output)
	}
	if !strings.Contains(output, "inserted 2 points") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newTestLogger("test")
	logger.SetLevel(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected DEBUG and INFO to be filtered, got: %s", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected WARN to pass, got: %s", buf.String())
	}
	buf.Reset()

	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected ERROR to pass, got: %s", buf.String())
	}
}

func TestLoggerPercentWithoutArgs(t *testing.T) {
	logger, buf := newTestLogger("test")
	logger.Info("wear ratio 100%")
	if !strings.Contains(buf.String(), "wear ratio 100%") {
		t.Errorf("message without args should be written verbatim, got: %s", buf.String())
	}
}

func TestLoggerJSON(t *testing.T) {
	logger, buf := newTestLogger("validate")
	logger.SetFormat(FormatJSON)

	logger.WithFields(Fields{"line": 12, "dz": 0.5}).Warn("depth jump")

	var entry JSONLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%s)", err, buf.String())
	}
	if entry.Level != "WARN" || entry.Logger != "validate" || entry.Message != "depth jump" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["line"] != float64(12) {
		t.Errorf("expected line field 12, got %v", entry.Fields["line"])
	}
}

func TestLoggerWithFieldsSorted(t *testing.T) {
	logger, buf := newTestLogger("test")
	logger.WithFields(Fields{"b": 2, "a": 1}).Info("fields")

	if !strings.Contains(buf.String(), "{a=1, b=2}") {
		t.Errorf("expected sorted fields, got: %s", buf.String())
	}
}

func TestEntryChaining(t *testing.T) {
	logger, buf := newTestLogger("test")
	base := logger.WithField("block", 1)
	base.WithField("kind", "cut").WithError(errors.New("boom")).Error("failed")

	output := buf.String()
	for _, want := range []string{"block=1", "kind=cut", "error=boom"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	buf.Reset()

	// The parent entry must not have picked up the child's fields.
	base.Info("again")
	if strings.Contains(buf.String(), "kind=cut") {
		t.Errorf("parent entry was mutated: %s", buf.String())
	}
}

func TestEntryWithFields(t *testing.T) {
	logger, buf := newTestLogger("test")
	logger.WithField("op", "slot").WithFields(Fields{"block": 3, "run_id": "r1"}).Info("merged")

	output := buf.String()
	for _, want := range []string{"op=slot", "block=3", "run_id=r1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLoggerCaller(t *testing.T) {
	logger, buf := newTestLogger("test")
	logger.SetCaller(true)
	logger.Info("with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("expected caller info, got: %s", buf.String())
	}
}

func TestWithPrefixSharesOutput(t *testing.T) {
	logger, buf := newTestLogger("root")
	child := logger.WithPrefix("cam")

	logger.SetLevel(ERROR)
	child.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("child should follow parent level, got: %s", buf.String())
	}
	child.Error("kept")
	if !strings.Contains(buf.String(), "cam: kept") {
		t.Errorf("expected child prefix, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{" error ", ERROR},
		{"nonsense", INFO},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected JSON format")
	}
	if ParseFormat("text") != FormatText || ParseFormat("") != FormatText {
		t.Error("expected text format")
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Setenv("WIRECAM_LOG_LEVEL", "error")
	t.Setenv("WIRECAM_LOG_FORMAT", "json")

	logger, buf := newTestLogger("env")
	ConfigureFromEnv(logger)

	if logger.GetLevel() != ERROR {
		t.Errorf("expected ERROR level, got %v", logger.GetLevel())
	}
	logger.Error("x")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}
}

func TestGetLogger(t *testing.T) {
	l := GetLogger("history")
	if l.prefix != "history" {
		t.Errorf("expected prefix history, got %s", l.prefix)
	}
	if l.out != Default().out {
		t.Error("component logger should share the default output")
	}
}
