// Log rotation tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingFileWriter(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sub", "wirecam.log")
	w, err := NewRotatingFileWriter(RotationConfig{Filename: name})
	if err != nil {
		t.Fatalf("NewRotatingFileWriter: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestRotatingFileWriterRotation(t *testing.T) {
	name := filepath.Join(t.TempDir(), "wirecam.log")
	w, err := NewRotatingFileWriter(RotationConfig{Filename: name, MaxBytes: 10, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingFileWriter: %v", err)
	}
	defer w.Close()

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if w.Rotations() != 3 {
		t.Errorf("expected 3 rotations, got %d", w.Rotations())
	}

	current, _ := os.ReadFile(name)
	first, _ := os.ReadFile(name + ".1")
	second, _ := os.ReadFile(name + ".2")
	if string(current) != "dddddddd\n" || string(first) != "cccccccc\n" || string(second) != "bbbbbbbb\n" {
		t.Errorf("unexpected rotation contents: %q %q %q", current, first, second)
	}
	if _, err := os.Stat(name + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected at most 2 backups")
	}
}

func TestRotationConfigEmptyFilename(t *testing.T) {
	if _, err := NewRotatingFileWriter(RotationConfig{}); err == nil {
		t.Error("expected error for empty filename")
	}
}

func TestAttachFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "wirecam.log")
	logger, buf := newTestLogger("file")
	fw, err := logger.AttachFile(RotationConfig{Filename: name})
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	logger.Info("both sinks")
	fw.Close()

	data, _ := os.ReadFile(name)
	if !strings.Contains(string(data), "both sinks") || !strings.Contains(buf.String(), "both sinks") {
		t.Errorf("expected message in both sinks, file=%q buf=%q", data, buf.String())
	}
}
