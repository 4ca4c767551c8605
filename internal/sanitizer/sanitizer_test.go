package sanitizer

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeStripsCSIColorCodes(t *testing.T) {
	s := New(nil)
	got := s.Sanitize("\x1b[31mExploit\x1b[0m")
	if got != "Exploit" {
		t.Errorf("Expected 'Exploit', got %q", got)
	}
}

func TestSanitizeStripsOSCTitleSequence(t *testing.T) {
	s := New(nil)
	got := s.Sanitize("before\x1b]0;pwned\x07after")
	if got != "beforeafter" {
		t.Errorf("Expected 'beforeafter', got %q", got)
	}
}

func TestSanitizeDropsNULByte(t *testing.T) {
	s := New(nil)
	got := s.Sanitize("a\x00b")
	if got != "ab" {
		t.Errorf("Expected NUL byte stripped, got %q", got)
	}
}

func TestSanitizeRunsInLinearTimeOnAdversarialInput(t *testing.T) {
	s := New(nil)
	payload := strings.Repeat("a", 100) + "!"

	done := make(chan string, 1)
	go func() { done <- s.Sanitize(payload) }()

	select {
	case got := <-done:
		if got != payload {
			t.Errorf("Expected adversarial payload to pass through unchanged, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Sanitize did not return promptly on adversarial input, possible catastrophic backtracking")
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	s := New(nil)
	payload := "\x1b[31mHello\x1b]0;title\x07 World\x1b[0m\x00"

	once := s.Sanitize(payload)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("Expected sanitizing twice to be a no-op, first=%q second=%q", once, twice)
	}
}

func TestSanitizeWhitelistDropsNonPrintableKeepsNewlines(t *testing.T) {
	s := New(nil)
	got := s.Sanitize("line one\nline two\ttabbed\r\nbell\x07end")

	if got != "line one\nline two\ttabbed\r\nbellend" {
		t.Errorf("Expected only whitelisted characters to survive, got %q", got)
	}
}

func TestSanitizeEmptyInputReturnsEmpty(t *testing.T) {
	s := New(nil)
	if got := s.Sanitize(""); got != "" {
		t.Errorf("Expected empty input to return empty, got %q", got)
	}
}

func TestSanitizeAllControlCharsReturnsEmpty(t *testing.T) {
	s := New(nil)
	got := s.Sanitize("\x1b[31m\x1b[0m")
	if got != "" {
		t.Errorf("Expected fully-stripped input to return empty, got %q", got)
	}
}
