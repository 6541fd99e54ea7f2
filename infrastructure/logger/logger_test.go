package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

type bufferWriteCloser struct {
	sync.Mutex
	bytes.Buffer
	closed bool
}

func (b *bufferWriteCloser) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *bufferWriteCloser) Close() error {
	b.closed = true
	return nil
}

func TestBackendFiltersByWriterLevel(t *testing.T) {
	backend := NewBackendWithFlags(0)
	all := &bufferWriteCloser{}
	warnings := &bufferWriteCloser{}
	if err := backend.AddLogWriter(all, LevelTrace); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.AddLogWriter(warnings, LevelWarn); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("hidden %d", 0)
	log.Debugf("debug %d", 1)
	log.Warnf("warn %d", 2)
	backend.Close()

	if !all.closed || !warnings.closed {
		t.Fatalf("Close did not close the writers")
	}
	allOutput := all.String()
	if strings.Contains(allOutput, "hidden") {
		t.Fatalf("trace message was written while the logger level is debug: %s", allOutput)
	}
	if !strings.Contains(allOutput, "[DBG] TEST: debug 1") || !strings.Contains(allOutput, "[WRN] TEST: warn 2") {
		t.Fatalf("unexpected output: %s", allOutput)
	}
	if strings.Contains(warnings.String(), "debug 1") || !strings.Contains(warnings.String(), "warn 2") {
		t.Fatalf("unexpected warnings output: %s", warnings.String())
	}
}

func TestAddLogWriterAfterRun(t *testing.T) {
	backend := NewBackendWithFlags(0)
	if err := backend.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}
	defer backend.Close()

	if err := backend.AddLogWriter(&bufferWriteCloser{}, LevelInfo); err == nil {
		t.Fatalf("AddLogWriter unexpectedly succeeded on a running backend")
	}
	if err := backend.Run(); err == nil {
		t.Fatalf("second Run unexpectedly succeeded")
	}
}

func TestSetLogLevels(t *testing.T) {
	first := RegisterSubSystem("TSTA")
	second := RegisterSubSystem("TSTB")
	if RegisterSubSystem("TSTA") != first {
		t.Fatalf("RegisterSubSystem returned a new logger for an existing subsystem")
	}

	if err := SetLogLevels("TSTA=trace,TSTB=error"); err != nil {
		t.Fatalf("SetLogLevels: %+v", err)
	}
	if first.Level() != LevelTrace || second.Level() != LevelError {
		t.Fatalf("unexpected levels %s, %s", first.Level(), second.Level())
	}

	if err := SetLogLevels("info"); err != nil {
		t.Fatalf("SetLogLevels: %+v", err)
	}
	if first.Level() != LevelInfo || second.Level() != LevelInfo {
		t.Fatalf("unexpected levels %s, %s", first.Level(), second.Level())
	}

	tests := []string{"banana", "TSTA=banana", "NOPE=info", "TSTA"}
	for _, spec := range tests {
		if err := SetLogLevels(spec); err == nil {
			t.Errorf("SetLogLevels(%q) unexpectedly succeeded", spec)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in       string
		expected Level
		ok       bool
	}{
		{"trace", LevelTrace, true},
		{"DBG", LevelDebug, true},
		{"warn", LevelWarn, true},
		{"off", LevelOff, true},
		{"loud", LevelInfo, false},
	}
	for _, test := range tests {
		level, ok := LevelFromString(test.in)
		if level != test.expected || ok != test.ok {
			t.Errorf("LevelFromString(%q) = (%s, %t), want (%s, %t)", test.in, level, ok, test.expected, test.ok)
		}
	}
}

func TestLevelFlag(t *testing.T) {
	var level Level
	if err := level.UnmarshalFlag("WRN"); err != nil {
		t.Fatalf("UnmarshalFlag: %+v", err)
	}
	if level != LevelWarn {
		t.Fatalf("UnmarshalFlag: expected %s, got %s", LevelWarn, level)
	}
	name, err := level.MarshalFlag()
	if err != nil {
		t.Fatalf("MarshalFlag: %+v", err)
	}
	if name != "warn" {
		t.Fatalf("MarshalFlag: expected warn, got %s", name)
	}

	if err := level.UnmarshalFlag("loud"); err == nil {
		t.Fatalf("UnmarshalFlag unexpectedly accepted an unknown level")
	}
	if level != LevelWarn {
		t.Fatalf("UnmarshalFlag: a rejected value must not change the level, got %s", level)
	}
	if _, err := Level(42).MarshalFlag(); err == nil {
		t.Fatalf("MarshalFlag unexpectedly accepted an out of range level")
	}
	if Level(42).String() != "OFF" {
		t.Fatalf("String: expected out of range levels to print as OFF, got %s", Level(42))
	}
}
