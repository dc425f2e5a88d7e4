package capture_test

import (
	"testing"

	"cua-server/services/control-engine/internal/domain/capture"
)

func TestShouldCapture(t *testing.T) {
	tests := []struct {
		name    string
		mode    capture.Mode
		context string
		want    bool
	}{
		{"none mode ignores search context", capture.ModeNone, "search", false},
		{"none mode ignores empty context", capture.ModeNone, "", false},
		{"none mode ignores navigate context", capture.ModeNone, "navigate", false},
		{"search-only allows search context", capture.ModeSearchOnly, "search", true},
		{"search-only rejects navigate context", capture.ModeSearchOnly, "navigate", false},
		{"search-only rejects empty context", capture.ModeSearchOnly, "", false},
		{"all allows search context", capture.ModeAll, "search", true},
		{"all allows navigate context", capture.ModeAll, "navigate", true},
		{"all allows empty context", capture.ModeAll, "", true},
		{"unknown mode rejects everything", capture.Mode("bogus"), "search", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := capture.ShouldCapture(tt.mode, tt.context); got != tt.want {
				t.Errorf("ShouldCapture(%q, %q) = %v, want %v", tt.mode, tt.context, got, tt.want)
			}
		})
	}
}

func TestShouldCaptureIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if !capture.ShouldCapture(capture.ModeSearchOnly, "search") {
			t.Fatal("repeated calls must return the same result")
		}
	}
}
