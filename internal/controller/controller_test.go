package controller

import (
	"testing"

	"github.com/whisperdoc/dictation-shell/internal/audiocapture"
	"github.com/whisperdoc/dictation-shell/internal/handshake"
	"github.com/whisperdoc/dictation-shell/internal/transport"
	"github.com/whisperdoc/dictation-shell/internal/wire"
)

type stubPaster struct {
	pasted []string
}

func (s *stubPaster) Paste(text string) error {
	s.pasted = append(s.pasted, text)
	return nil
}

type stubCreds struct{}

func (stubCreds) GetAPIKey(host string) (string, error) { return "test-key", nil }
func (stubCreds) ClearKey(host string) error { return nil }

func newTestController(t *testing.T, paster *stubPaster, incognito bool) *Controller {
	t.Helper()
	tr, err := transport.New(transport.Options{
		URI:         "ws://localhost:9989/ws",
		Credentials: stubCreds{},
	})
	if err != nil {
		t.Fatalf("Unexpected error building transport: %v", err)
	}

	return New(Options{
		Audio:     audiocapture.New(0, nil),
		Transport: tr,
		Paster:    paster,
		Incognito: incognito,
	})
}

func TestPasteTextSanitizesBeforePasting(t *testing.T) {
	paster := &stubPaster{}
	c := newTestController(t, paster, false)

	c.pasteText("\x1b[31mExploit\x1b[0m")

	if len(paster.pasted) != 1 {
		t.Fatalf("Expected exactly one paste, got %d", len(paster.pasted))
	}
	if paster.pasted[0] != "Exploit" {
		t.Errorf("Expected sanitized text 'Exploit', got %q", paster.pasted[0])
	}
}

func TestPasteTextSkipsEmptyOrWhitespace(t *testing.T) {
	paster := &stubPaster{}
	c := newTestController(t, paster, false)

	c.pasteText("   ")
	c.pasteText("")

	if len(paster.pasted) != 0 {
		t.Errorf("Expected no pastes for empty/whitespace text, got %v", paster.pasted)
	}
}

func TestPasteTextSkipsWhenSanitizerEmptiesResult(t *testing.T) {
	paster := &stubPaster{}
	c := newTestController(t, paster, false)

	c.pasteText("\x1b[31m\x1b[0m")

	if len(paster.pasted) != 0 {
		t.Errorf("Expected no paste when sanitized result is empty, got %v", paster.pasted)
	}
}

func TestHandleServerMessageDispatchesOnTextPresence(t *testing.T) {
	paster := &stubPaster{}
	c := newTestController(t, paster, false)

	c.handleServerMessage(wire.InboundMessage{HasText: true, Text: "hello world"})

	if len(paster.pasted) != 1 || paster.pasted[0] != "hello world" {
		t.Errorf("Expected text message to be pasted, got %v", paster.pasted)
	}
}

func TestHandleServerMessageIgnoresErrorWithoutText(t *testing.T) {
	paster := &stubPaster{}
	c := newTestController(t, paster, false)

	c.handleServerMessage(wire.InboundMessage{Event: "error", Code: 500, Message: "boom"})

	if len(paster.pasted) != 0 {
		t.Errorf("Expected no paste for an error message, got %v", paster.pasted)
	}
}

func TestOnHandshakeFailedClearsBuffer(t *testing.T) {
	paster := &stubPaster{}
	c := newTestController(t, paster, false)

	c.buffer.Add([]byte{1, 2, 3})
	if c.buffer.IsEmpty() {
		t.Fatal("Expected buffer to hold a chunk before failure")
	}

	c.onHandshakeStateChanged(handshake.Failed)

	if !c.buffer.IsEmpty() {
		t.Errorf("Expected buffer cleared after handshake failure")
	}
}
