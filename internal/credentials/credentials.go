// Package credentials stores and retrieves the per-host API key used to
// authenticate with the transcription server, backed by the OS keyring.
package credentials

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/whisperdoc/dictation-shell/internal/telemetry"
)

// ServiceName is the keyring service identifier under which keys are stored.
const ServiceName = "WhisperDoc_Client"

// Provider retrieves and clears the API key used to authenticate a given
// host.
type Provider interface {
	GetAPIKey(host string) (string, error)
	ClearKey(host string) error
}

// KeyringProvider persists keys in the OS-native credential store (Keychain,
// Secret Service, Windows Credential Manager). When no key is stored it
// prompts interactively on stdin and saves what the operator enters.
type KeyringProvider struct {
	log telemetry.Logger
	in  *bufio.Reader
}

// New builds a KeyringProvider reading prompts from stdin. A nil logger is
// replaced with a no-op.
func New(log telemetry.Logger) *KeyringProvider {
	if log == nil {
		log = &telemetry.NoOpLogger{}
	}
	return &KeyringProvider{log: log, in: bufio.NewReader(os.Stdin)}
}

// GetAPIKey returns the stored key for host, prompting and persisting one if
// none is found.
func (p *KeyringProvider) GetAPIKey(host string) (string, error) {
	key, err := keyring.Get(ServiceName, host)
	if err == nil && key != "" {
		return key, nil
	}

	fmt.Printf("Authentication required for %s\n", host)
	fmt.Printf("Enter API Key for %s: ", host)
	line, readErr := p.in.ReadString('\n')
	if readErr != nil && line == "" {
		return "", readErr
	}
	key = strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("no api key entered for %s", host)
	}

	if err := keyring.Set(ServiceName, host, key); err != nil {
		p.log.Warn("could not persist api key to OS keyring: %v", err)
	} else {
		fmt.Println("Key saved securely to OS keyring.")
	}
	return key, nil
}

// ClearKey removes any stored key for host.
func (p *KeyringProvider) ClearKey(host string) error {
	err := keyring.Delete(ServiceName, host)
	if err != nil && err != keyring.ErrNotFound {
		return err
	}
	p.log.Warn("api key removed from secure storage for %s", host)
	return nil
}
