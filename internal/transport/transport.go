// Package transport manages the WebSocket connection and application-level
// handshake with the transcription server, enforcing the rule that no audio
// ever leaves the client before the server has authenticated it.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/whisperdoc/dictation-shell/internal/handshake"
	"github.com/whisperdoc/dictation-shell/internal/telemetry"
	"github.com/whisperdoc/dictation-shell/internal/wire"
)

// CredentialProvider retrieves the API key used to authenticate a host.
type CredentialProvider interface {
	GetAPIKey(host string) (string, error)
	ClearKey(host string) error
}

// MessageListener is notified of every inbound message that is not consumed
// internally by the handshake itself (hello and authenticated frames are
// consumed; error/status/text results and any other frames reach listeners;
// error additionally drives handshake state).
type MessageListener func(wire.InboundMessage)

// Options configures a Transport.
type Options struct {
	// URI is the configured server address, in any of the forms accepted by
	// PrepareURI.
	URI string
	// IdleTimeout disconnects the socket after this much inactivity. Zero
	// uses DefaultIdleTimeout.
	IdleTimeout time.Duration
	// ClientVersion is sent in the hello payload.
	ClientVersion string
	// Incognito is sent in the hello payload.
	Incognito bool
	// Credentials supplies the API key for the hello frame.
	Credentials CredentialProvider
	Log         telemetry.Logger
}

// DefaultIdleTimeout matches the reference client's default.
const DefaultIdleTimeout = 300 * time.Second

// Transport owns a single WebSocket connection plus the handshake state
// machine gating audio flow over it.
type Transport struct {
	hostname string
	finalURI string

	idleTimeout   time.Duration
	clientVersion string
	incognito     bool
	creds         CredentialProvider
	log           telemetry.Logger

	Handshake *handshake.Machine

	mu        sync.Mutex
	conn      *websocket.Conn
	connCtx   context.Context
	connStop  context.CancelFunc
	idleTimer *time.Timer
	listeners []MessageListener
}

// New builds a Transport for the given options. It does not connect.
func New(opts Options) (*Transport, error) {
	final, err := PrepareURI(opts.URI)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(final)
	if err != nil {
		return nil, err
	}

	log := opts.Log
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}

	if requestedWS(opts.URI) && parsed.Scheme == "wss" {
		log.Warn("upgrading ws to wss for remote host %s", parsed.Hostname())
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	return &Transport{
		hostname:      parsed.Hostname(),
		finalURI:      final,
		idleTimeout:   idle,
		clientVersion: opts.ClientVersion,
		incognito:     opts.Incognito,
		creds:         opts.Credentials,
		log:           log,
		Handshake:     handshake.New(handshake.DefaultTimeout, log),
	}, nil
}

// AddMessageListener registers a callback for inbound messages other than
// the internally-handled hello/authenticated frames.
func (t *Transport) AddMessageListener(l MessageListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Connect dials the server and starts the application-level handshake. It is
// idempotent: calling it while already connected is a no-op.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	t.log.Info("connecting to %s...", t.hostname)
	t.Handshake.Reset()

	dialOpts := &websocket.DialOptions{}
	if parsed, err := url.Parse(t.finalURI); err == nil && parsed.Scheme == "wss" {
		dialOpts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					// Zero-Trust enforcement: always verify hostname and
					// certificate chain. There is no skip-verify knob.
					InsecureSkipVerify: false,
				},
			},
		}
		t.log.Debug("TLS verification enabled for %s", t.hostname)
	}

	conn, _, err := websocket.Dial(ctx, t.finalURI, dialOpts)
	if err != nil {
		t.log.Error("connection failed: %v", err)
		t.disconnect("connect failed: " + err.Error())
		return err
	}

	connCtx, connStop := context.WithCancel(context.Background())

	t.mu.Lock()
	t.conn = conn
	t.connCtx = connCtx
	t.connStop = connStop
	t.mu.Unlock()

	go t.listenLoop(connCtx, conn)

	if t.creds == nil {
		t.disconnect("no credential provider configured")
		return ErrNoAPIKey
	}
	apiKey, err := t.creds.GetAPIKey(t.hostname)
	if err != nil || apiKey == "" {
		t.log.Error("no api key available for authentication")
		t.disconnect("no api key")
		return ErrNoAPIKey
	}

	payload := wire.HelloPayload(apiKey, t.clientVersion, t.incognito)
	if err := t.sendJSON(ctx, payload); err != nil {
		t.disconnect("failed to send hello: " + err.Error())
		return err
	}
	apiKey = ""

	t.Handshake.TransitionTo(handshake.Authenticating)
	return nil
}

// EnsureConnected connects only if not already authenticated, matching the
// background auto-wake pattern used when a recording starts before the
// handshake has completed.
func (t *Transport) EnsureConnected(ctx context.Context) error {
	if t.Handshake.State() == handshake.Authenticated {
		return nil
	}
	return t.Connect(ctx)
}

func (t *Transport) listenLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		msgType, payload, err := conn.Read(ctx)
		if err != nil {
			t.log.Warn("websocket closed: %v", err)
			t.disconnect("closed by server")
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		t.resetIdleTimer()
		t.handleRawMessage(payload)
	}
}

func (t *Transport) handleRawMessage(raw []byte) {
	msg, err := wire.ParseMessage(raw)
	if err != nil {
		t.log.Error("message parsing error: %v", err)
		return
	}

	switch msg.Event {
	case "hello":
		// Server acknowledgment of the connection; the hello we sent in
		// Connect already drove the AUTHENTICATING transition.
		return
	case "authenticated":
		t.Handshake.TransitionTo(handshake.Authenticated)
		t.log.Success("authenticated CID: %s", msg.CID)
		return
	case "error":
		switch msg.Code {
		case 401, 403:
			t.Handshake.TransitionTo(handshake.Failed)
			if t.creds != nil {
				if err := t.creds.ClearKey(t.hostname); err != nil {
					t.log.Warn("could not clear rejected api key: %v", err)
				}
			}
		case 1008:
			t.Handshake.TransitionTo(handshake.Banned)
		}
		t.notifyListeners(msg)
		return
	default:
		t.notifyListeners(msg)
	}
}

func (t *Transport) notifyListeners(msg wire.InboundMessage) {
	t.mu.Lock()
	listeners := make([]MessageListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	for _, l := range listeners {
		l(msg)
	}
}

// SendAudio writes a binary PCM frame, but only while the handshake reports
// Authenticated. Callers are expected to buffer audio themselves otherwise.
func (t *Transport) SendAudio(ctx context.Context, chunk []byte) error {
	if !t.Handshake.CanSendAudio() {
		return nil
	}
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	t.resetIdleTimer()
	return conn.Write(ctx, websocket.MessageBinary, chunk)
}

// SendEndOfStream signals the end of a recording session.
func (t *Transport) SendEndOfStream(ctx context.Context) error {
	return t.sendJSON(ctx, wire.EndOfStreamPayload())
}

func (t *Transport) sendJSON(ctx context.Context, payload map[string]interface{}) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	t.resetIdleTimer()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func (t *Transport) resetIdleTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	t.idleTimer = time.AfterFunc(t.idleTimeout, func() {
		t.log.Info("idle for %s, disconnecting to save server resources", t.idleTimeout)
		t.disconnect("idle timeout")
	})
}

// Disconnect closes the connection cleanly with the given human-readable
// reason, resetting the handshake and cancelling any pending timers. It is
// idempotent.
func (t *Transport) Disconnect(reason string) {
	t.disconnect(reason)
}

func (t *Transport) disconnect(reason string) {
	t.Handshake.Reset()

	t.mu.Lock()
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	if t.connStop != nil {
		t.connStop()
		t.connStop = nil
	}
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, reason)
	}
	t.log.Info("disconnected: %s", reason)
}

// CheckHealth performs a pre-flight HTTP health check against the server's
// /health endpoint.
func (t *Transport) CheckHealth(ctx context.Context) bool {
	healthURL, err := HealthURL(t.finalURI)
	if err != nil {
		t.log.Error("health check URL error: %v", err)
		return false
	}

	t.log.Info("health check: %s...", healthURL)
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, healthURL, nil)
	if err != nil {
		t.log.Error("health check failed: %v", err)
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.log.Error("health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		t.log.Success("server is healthy")
		return true
	}
	t.log.Error("health check failed: status %s", fmt.Sprint(resp.StatusCode))
	return false
}
