package transport

import "net/url"

// PrepareURI canonicalizes a configured server address into the exact
// WebSocket URI to dial: http/https are mapped to ws/wss, a missing path
// defaults to "/ws", and any non-local hostname is forced onto wss even if
// the caller asked for plain ws. There is deliberately no fallback from wss
// back to ws on failure — a remote connection either gets TLS or it doesn't
// connect.
func PrepareURI(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		// A bare host:port has no authority component (url.Parse reads the
		// host as a scheme, or rejects a leading IP); treat it as ws.
		parsed, err = url.Parse("ws://" + raw)
	}
	if err != nil {
		return "", err
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		hostname = "localhost"
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "ws"
	}
	switch scheme {
	case "https":
		scheme = "wss"
	case "http":
		scheme = "ws"
	}

	if scheme == "ws" && !isLocalHost(hostname) {
		scheme = "wss"
	}

	path := parsed.Path
	if path == "" {
		path = "/ws"
	}

	out := url.URL{
		Scheme:   scheme,
		Host:     parsed.Host,
		Path:     path,
		RawQuery: parsed.RawQuery,
	}
	if out.Host == "" {
		out.Host = hostname
	}
	return out.String(), nil
}

// requestedWS reports whether raw asked for plain ws (explicitly or via a
// bare host:port with no scheme), used by New to decide whether PrepareURI
// silently upgraded the caller's request to wss.
func requestedWS(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return true
	}
	return parsed.Scheme == "ws" || parsed.Scheme == "http"
}

func isLocalHost(hostname string) bool {
	switch hostname {
	case "localhost", "127.0.0.1", "0.0.0.0", "::1":
		return true
	default:
		return false
	}
}

// HealthURL derives the HTTP(S) health-check endpoint from a prepared
// WebSocket URI.
func HealthURL(wsURI string) (string, error) {
	parsed, err := url.Parse(wsURI)
	if err != nil {
		return "", err
	}
	scheme := "http"
	if parsed.Scheme == "wss" {
		scheme = "https"
	}
	out := url.URL{Scheme: scheme, Host: parsed.Host, Path: "/health"}
	return out.String(), nil
}
