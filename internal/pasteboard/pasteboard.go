// Package pasteboard copies sanitized transcription results onto the system
// clipboard and simulates a paste keystroke into the focused application.
package pasteboard

import (
	"github.com/atotto/clipboard"

	"github.com/whisperdoc/dictation-shell/internal/telemetry"
)

// Paster copies text to the clipboard and synthesizes the paste keystroke
// combination into whatever application currently has focus.
type Paster interface {
	Paste(text string) error
}

// ClipboardPaster copies to the OS clipboard via atotto/clipboard. Simulating
// the actual keystroke is OS-specific input injection outside this package's
// scope; InjectKeystroke is left as a seam a platform build can fill in.
type ClipboardPaster struct {
	log             telemetry.Logger
	InjectKeystroke func() error
}

// New builds a ClipboardPaster. A nil logger is replaced with a no-op.
func New(log telemetry.Logger) *ClipboardPaster {
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}
	return &ClipboardPaster{log: log}
}

// Paste copies text to the clipboard, then invokes InjectKeystroke if one was
// supplied. Empty text is a no-op; whitespace-only text is copied like any
// other.
func (p *ClipboardPaster) Paste(text string) error {
	if text == "" {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return err
	}
	if p.InjectKeystroke == nil {
		p.log.Debug("no keystroke injector configured, leaving text on clipboard only")
		return nil
	}
	return p.InjectKeystroke()
}
