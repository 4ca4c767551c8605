// Package controller orchestrates the recording lifecycle, bridging audio
// capture, transport, buffering, and paste output.
package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/whisperdoc/dictation-shell/internal/audiobuffer"
	"github.com/whisperdoc/dictation-shell/internal/audiocapture"
	"github.com/whisperdoc/dictation-shell/internal/handshake"
	"github.com/whisperdoc/dictation-shell/internal/pasteboard"
	"github.com/whisperdoc/dictation-shell/internal/sanitizer"
	"github.com/whisperdoc/dictation-shell/internal/telemetry"
	"github.com/whisperdoc/dictation-shell/internal/transport"
	"github.com/whisperdoc/dictation-shell/internal/wire"
)

// pollInterval is how often the pipe loop checks for queued audio, mirroring
// the reference client's polling cadence.
const pollInterval = 100 * time.Millisecond

// Controller owns a single recording session end to end: it starts hardware
// capture on toggle, buffers or forwards audio depending on handshake state,
// and pastes sanitized transcription results as they arrive.
type Controller struct {
	audio     *audiocapture.Capture
	transport *transport.Transport
	buffer    *audiobuffer.Buffer
	sanitizer *sanitizer.Sanitizer
	paster    pasteboard.Paster
	log       telemetry.Logger
	incognito bool

	mu          sync.Mutex
	isRecording bool
	pipeDone    chan struct{}
}

// Options configures a Controller.
type Options struct {
	Audio     *audiocapture.Capture
	Transport *transport.Transport
	Paster    pasteboard.Paster
	Incognito bool
	Log       telemetry.Logger
}

// New builds a Controller and wires its transport listeners.
func New(opts Options) *Controller {
	log := opts.Log
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}

	c := &Controller{
		audio:     opts.Audio,
		transport: opts.Transport,
		buffer:    audiobuffer.New(log),
		sanitizer: sanitizer.New(log),
		paster:    opts.Paster,
		log:       log,
		incognito: opts.Incognito,
	}

	c.transport.AddMessageListener(c.handleServerMessage)
	c.transport.Handshake.AddListener(c.onHandshakeStateChanged)

	return c
}

// ToggleRecording starts a session if idle, or stops the current one.
func (c *Controller) ToggleRecording(ctx context.Context) {
	c.mu.Lock()
	recording := c.isRecording
	c.mu.Unlock()

	if !recording {
		c.startSession(ctx)
	} else {
		c.stopSession(ctx)
	}
}

func (c *Controller) startSession(ctx context.Context) {
	c.mu.Lock()
	if c.isRecording {
		c.mu.Unlock()
		return
	}
	c.isRecording = true
	c.pipeDone = make(chan struct{})
	c.mu.Unlock()

	c.log.Info("recording...")

	c.audio.StartCapture()
	c.buffer.Clear()

	go func() { _ = c.transport.EnsureConnected(ctx) }()
	go c.processAudioPipe(ctx)
}

func (c *Controller) stopSession(ctx context.Context) {
	c.mu.Lock()
	if !c.isRecording {
		c.mu.Unlock()
		return
	}
	c.isRecording = false
	c.mu.Unlock()

	c.audio.StopCapture()
	c.log.Info("stopped. processing...")

	if c.transport.Handshake.State() == handshake.Authenticated {
		_ = c.transport.SendEndOfStream(ctx)
	}
}

func (c *Controller) processAudioPipe(ctx context.Context) {
	defer close(c.pipeDone)

	chunks := c.audio.Chunks()
	for {
		c.mu.Lock()
		recording := c.isRecording
		c.mu.Unlock()

		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if c.transport.Handshake.State() == handshake.Authenticated {
				if !c.buffer.IsEmpty() {
					_ = c.buffer.Flush(func(b []byte) error {
						return c.transport.SendAudio(ctx, b)
					})
				}
				_ = c.transport.SendAudio(ctx, chunk)
			} else {
				c.buffer.Add(chunk)
			}
		case <-time.After(pollInterval):
			if !recording {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) onHandshakeStateChanged(state handshake.State) {
	switch state {
	case handshake.Authenticated:
		c.log.Debug("handshake authenticated, pipe loop will flush buffer")
	case handshake.Failed:
		c.log.Error("handshake failed, clearing audio buffer")
		c.buffer.Clear()
	}
}

func (c *Controller) handleServerMessage(msg wire.InboundMessage) {
	if msg.HasText {
		c.pasteText(msg.Text)
		return
	}
	switch msg.Event {
	case "error":
		c.log.Error("server error: %d - %s", msg.Code, msg.Message)
	case "status":
		c.log.Info("server status: %s", msg.Message)
	}
}

func (c *Controller) pasteText(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	safe := c.sanitizer.Sanitize(text)
	if safe == "" {
		return
	}

	if c.incognito {
		c.log.Ghost("result: %s", safe)
	} else {
		c.log.Success("result: %s", safe)
	}

	if c.paster == nil {
		return
	}
	if err := c.paster.Paste(safe); err != nil {
		c.log.Error("paste failed: %v", err)
	}
}

// Shutdown disconnects the transport and stops the hardware stream.
func (c *Controller) Shutdown(ctx context.Context) {
	c.transport.Disconnect("app shutdown")
	c.audio.StopStream()
}
