package transport

import "testing"

func TestPrepareURIDefaultsPathAndScheme(t *testing.T) {
	got, err := PrepareURI("localhost:9989")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "ws://localhost:9989/ws"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestPrepareURIHTTPMapsToWS(t *testing.T) {
	got, err := PrepareURI("http://localhost:9989/ws")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "ws://localhost:9989/ws" {
		t.Errorf("Expected http to map to ws, got %q", got)
	}
}

func TestPrepareURIHTTPSMapsToWSS(t *testing.T) {
	got, err := PrepareURI("https://example.com/ws")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "wss://example.com/ws" {
		t.Errorf("Expected https to map to wss, got %q", got)
	}
}

func TestPrepareURIForcesWSSForRemoteHost(t *testing.T) {
	got, err := PrepareURI("ws://example.com:9989/ws")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "wss://example.com:9989/ws" {
		t.Errorf("Expected remote host to force wss, got %q", got)
	}
}

func TestPrepareURIKeepsWSForLocalhostVariants(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		got, err := PrepareURI("ws://" + host + ":9989/ws")
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", host, err)
		}
		want := "ws://" + host + ":9989/ws"
		if got != want {
			t.Errorf("Expected local host %s to keep ws, got %q", host, got)
		}
	}
}

func TestPrepareURIPreservesQuery(t *testing.T) {
	got, err := PrepareURI("ws://localhost:9989/custom?foo=bar")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "ws://localhost:9989/custom?foo=bar"
	if got != want {
		t.Errorf("Expected query preserved, got %q", got)
	}
}

func TestHealthURLDerivesFromWSS(t *testing.T) {
	got, err := HealthURL("wss://example.com:9989/ws")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "https://example.com:9989/health" {
		t.Errorf("Expected https health URL, got %q", got)
	}
}

func TestHealthURLDerivesFromWS(t *testing.T) {
	got, err := HealthURL("ws://localhost:9989/ws")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "http://localhost:9989/health" {
		t.Errorf("Expected http health URL, got %q", got)
	}
}
