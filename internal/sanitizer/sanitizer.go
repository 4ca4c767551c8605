// Package sanitizer neutralizes terminal-injection payloads echoed back
// from the transcription server before they are ever pasted into the
// focused application.
package sanitizer

import (
	"strings"

	"github.com/whisperdoc/dictation-shell/internal/telemetry"
)

// maxRunLen bounds ANSI sequence scanning so a single malformed escape
// cannot force the stripper to walk arbitrarily far; this keeps the whole
// pass linear in len(text) regardless of input shape.
const maxRunLen = 256

// Sanitizer applies a strict whitelist-only defense against control
// sequences, ANSI escapes, and non-printable bytes in server-returned text.
type Sanitizer struct {
	log telemetry.Logger
}

// New builds a Sanitizer. A nil logger is replaced with a no-op.
func New(log telemetry.Logger) *Sanitizer {
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}
	return &Sanitizer{log: log}
}

// Sanitize neutralizes ANSI/OSC escapes and anything outside the printable
// ASCII + \n\r\t whitelist, then trims leading/trailing whitespace. It never
// panics: any unexpected condition falls back to the empty string so the
// caller's "empty means don't paste" rule stays fail-secure.
func (s *Sanitizer) Sanitize(text string) (result string) {
	if text == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sanitizer panic recovered, failing secure: %v", r)
			result = ""
		}
	}()

	cleaned := stripANSI(text)
	cleaned = whitelist(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned != text {
		s.log.Warn("sanitizer neutralized control sequences or non-whitelisted characters")
	}
	return cleaned
}

// stripANSI removes CSI sequences (ESC [ ... letter in mGKH) and OSC title
// sequences (ESC ] 0 ; ... BEL) with a single linear left-to-right scan —
// no backtracking regex, so it cannot be driven into pathological time by
// adversarial input.
func stripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; {
		if runes[i] == 0x1b && i+1 < n {
			switch runes[i+1] {
			case '[':
				j := i + 2
				limit := j + maxRunLen
				for j < n && j < limit && (runes[j] == ';' || (runes[j] >= '0' && runes[j] <= '9')) {
					j++
				}
				if j < n && j < limit && isCSIFinal(runes[j]) {
					i = j + 1
					continue
				}
			case ']':
				// OSC: ESC ] 0 ; <title> BEL
				j := i + 2
				limit := j + maxRunLen
				for j < n && j < limit && runes[j] != 0x07 {
					j++
				}
				if j < n && j < limit && runes[j] == 0x07 {
					i = j + 1
					continue
				}
			}
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

func isCSIFinal(r rune) bool {
	switch r {
	case 'm', 'G', 'K', 'H':
		return true
	default:
		return false
	}
}

// whitelist drops every rune outside 0x20-0x7E plus \n, \r, \t.
func whitelist(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return b.String()
}
