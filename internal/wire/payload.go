// Package wire defines the fixed-shape JSON control frames exchanged with
// the transcription server, and the inbound message envelope used to
// dispatch them.
package wire

import "encoding/json"

// ClientID identifies this implementation in the hello frame. It is a
// compile-time constant; the version sent beside it is passed in by the
// caller from configuration.
const ClientID = "whisper.client.terminal"

// HelloPayload builds the mandatory application-level handshake frame.
func HelloPayload(token, version string, incognito bool) map[string]interface{} {
	return map[string]interface{}{
		"event":     "hello",
		"client":    ClientID,
		"version":   version,
		"auth_type": "api_key",
		"token":     token,
		"incognito": incognito,
	}
}

// EndOfStreamPayload builds the frame that signals the end of a recording
// session to the server.
func EndOfStreamPayload() map[string]interface{} {
	return map[string]interface{}{"event": "end-of-stream"}
}

// InboundMessage is the generic shape of every JSON text frame the server
// may send. Fields are optional depending on the event.
//
// A transcription result is identified by the presence of the "text" key,
// independent of "event" — the server omits "event" entirely on those
// frames. HasText distinguishes "key absent" from "key present but empty",
// which Text alone cannot since both unmarshal to the zero value.
type InboundMessage struct {
	Event   string `json:"event,omitempty"`
	Version string `json:"version,omitempty"`
	CID     string `json:"cid,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
	Text    string `json:"text,omitempty"`
	HasText bool   `json:"-"`
}

// ParseMessage decodes a raw inbound text frame, recording whether the
// "text" key was present so callers can dispatch on it without confusing an
// absent key with an empty string.
func ParseMessage(raw []byte) (InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return InboundMessage{}, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return InboundMessage{}, err
	}
	_, msg.HasText = probe["text"]

	return msg, nil
}
