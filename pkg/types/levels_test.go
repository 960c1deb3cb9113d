package types

import (
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"critical", LevelCritical, false},
		{"ERROR", LevelError, false},
		{"Warning", LevelWarning, false},
		{"warn", LevelWarning, false},
		{"success", LevelSuccess, false},
		{" info ", LevelInfo, false},
		{"DEBUG", LevelDebug, false},
		{"3", LevelWarning, false},
		{"7", 0, true},
		{"loud", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Fatalf("expected ErrInvalidLevel, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelEnabled(t *testing.T) {
	if LevelDebug.Enabled(LevelWarning) {
		t.Error("DEBUG must not pass a WARNING gate")
	}
	if !LevelError.Enabled(LevelWarning) {
		t.Error("ERROR must pass a WARNING gate")
	}
	if !LevelWarning.Enabled(LevelWarning) {
		t.Error("WARNING must pass a WARNING gate")
	}
	for _, l := range Levels() {
		if !l.Enabled(LevelDebug) {
			t.Errorf("%v must pass a DEBUG gate", l)
		}
	}
}

func TestLevelText(t *testing.T) {
	var l Level
	if err := l.UnmarshalText([]byte("success")); err != nil {
		t.Fatal(err)
	}
	if l != LevelSuccess {
		t.Errorf("got %v", l)
	}
	b, _ := l.MarshalText()
	if string(b) != "SUCCESS" {
		t.Errorf("got %s", b)
	}
	if Level(42).String() != "LEVEL(42)" {
		t.Errorf("unexpected name %s", Level(42))
	}
}

func TestClassifyIOError(t *testing.T) {
	pathErr := &os.PathError{Op: "write", Path: "/x", Err: syscall.ENOSPC}
	if ClassifyIOError(pathErr) != KindIOPermanent {
		t.Error("ENOSPC should be permanent")
	}
	if ClassifyIOError(errors.Wrap(ErrInsufficientSpace, "pre-check")) != KindIOPermanent {
		t.Error("free-space failure should be permanent")
	}
	if ClassifyIOError(&os.PathError{Op: "open", Path: "/x", Err: syscall.EAGAIN}) != KindIOTransient {
		t.Error("EAGAIN should be transient")
	}
	if IsPermanentIOError(nil) {
		t.Error("nil is not an error")
	}
}
