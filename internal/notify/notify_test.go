package notify

import (
	"errors"
	"testing"
	"time"

	"questsync/internal/engine"
)

func TestAppleEscaper(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`Hello World`, `Hello World`},
		{`Hello "World"`, `Hello \"World\"`},
		{`C:\Users\test`, `C:\\Users\\test`},
		{"Line1\nLine2\tTabbed", `Line1\nLine2\tTabbed`},
		{`Quote: " Backslash: \`, `Quote: \" Backslash: \\`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := appleEscaper.Replace(tt.input); got != tt.want {
				t.Errorf("Replace(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSendNonBlocking(t *testing.T) {
	start := time.Now()
	Send("questsync", "test message")
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Send() took %v, want near-immediate return", elapsed)
	}
}

func TestCycleFailed(t *testing.T) {
	// None of these may panic or block; the notification itself is
	// unobservable here.
	tests := []struct {
		name    string
		outcome *engine.Outcome
		err     error
	}{
		{"cycle error", nil, errors.New("both snapshots failed")},
		{"nil outcome", nil, nil},
		{"successful outcome", &engine.Outcome{Success: true}, nil},
		{"failed actions", &engine.Outcome{Failed: 3}, nil},
		{"degraded snapshot", &engine.Outcome{Success: false}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			CycleFailed(tt.outcome, tt.err)
		})
	}

	// Give fired goroutines time to finish before the test binary exits.
	time.Sleep(50 * time.Millisecond)
}
