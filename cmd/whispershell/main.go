// Command whispershell is the push-to-talk dictation client: it listens for
// a global hotkey, streams microphone audio to a transcription server over
// a websocket, and pastes the sanitized result into whatever application has
// focus.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whisperdoc/dictation-shell/internal/audiocapture"
	"github.com/whisperdoc/dictation-shell/internal/config"
	"github.com/whisperdoc/dictation-shell/internal/controller"
	"github.com/whisperdoc/dictation-shell/internal/credentials"
	"github.com/whisperdoc/dictation-shell/internal/hotkey"
	"github.com/whisperdoc/dictation-shell/internal/pasteboard"
	"github.com/whisperdoc/dictation-shell/internal/singleinstance"
	"github.com/whisperdoc/dictation-shell/internal/telemetry"
	"github.com/whisperdoc/dictation-shell/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	setup := flag.Bool("setup", false, "run interactive setup wizard")
	health := flag.Bool("health", false, "run pre-flight server health check")
	version := flag.Bool("version", false, "print client version and exit")
	clearKey := flag.Bool("clear-key", false, "clear stored API key and exit")
	incognito := flag.Bool("incognito", false, "enable ghost mode (no server logs, no local history)")
	flag.Parse()

	cfg := config.Load()
	cfg.Incognito = *incognito
	log := telemetry.NewStdLogger(telemetry.ParseLevel(cfg.LogLevel))

	if *version {
		fmt.Printf("WhisperDoc Terminal Client v%s\n", cfg.Version)
		return 0
	}

	hostname := hostnameOf(cfg.WSURI)
	creds := credentials.New(log)

	if *clearKey {
		if err := creds.ClearKey(hostname); err != nil {
			log.Error("failed to clear api key: %v", err)
			return 1
		}
		return 0
	}

	if !config.Exists() || *setup {
		runInteractiveSetup(cfg, log)
		cfg = config.Load()
	}

	if *health {
		tr, err := transport.New(transport.Options{URI: cfg.WSURI, Log: log})
		if err != nil {
			log.Error("invalid server uri: %v", err)
			return 1
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if tr.CheckHealth(ctx) {
			return 0
		}
		return 1
	}

	lock, acquired := singleinstance.Acquire()
	if !acquired {
		log.Warn("another instance of the dictation client is already running, exiting")
		return 1
	}
	defer lock.Release()

	audio := audiocapture.New(cfg.AudioDeviceID, log)

	tr, err := transport.New(transport.Options{
		URI:           cfg.WSURI,
		IdleTimeout:   time.Duration(cfg.IdleTimeout) * time.Second,
		ClientVersion: cfg.Version,
		Incognito:     cfg.Incognito,
		Credentials:   creds,
		Log:           log,
	})
	if err != nil {
		log.Error("invalid server uri: %v", err)
		return 1
	}

	paster := pasteboard.New(log)

	ctrl := controller.New(controller.Options{
		Audio:     audio,
		Transport: tr,
		Paster:    paster,
		Incognito: cfg.Incognito,
		Log:       log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := audio.StartStream(); err != nil {
		log.Error("failed to start hardware audio stream: %v", err)
		return 1
	}

	log.Info("proactively warming up backend connection...")
	go func() { _ = tr.Connect(ctx) }()

	hk := hotkey.NoOpBridge{}
	if err := hk.Start(func() { ctrl.ToggleRecording(ctx) }); err != nil {
		log.Error("failed to start hotkey listener: %v", err)
		return 1
	}
	log.Success("client ready. hotkey: %s", cfg.RecordHotkey)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("initiating shutdown...")
	hk.Stop()
	ctrl.Shutdown(ctx)
	log.Success("shutdown complete.")
	return 0
}

func hostnameOf(rawURI string) string {
	parsed, err := url.Parse(rawURI)
	if err != nil || parsed.Hostname() == "" {
		return "localhost"
	}
	return parsed.Hostname()
}

func runInteractiveSetup(cfg config.Config, log telemetry.Logger) {
	log.Info("--- WhisperDoc Client Setup ---")
	log.Info("no %s file found; using configured defaults (server=%s, device=%d)", config.EnvPath(), cfg.WSURI, cfg.AudioDeviceID)
	log.Info("edit %s to customize WHISPER_WS_URI, AUDIO_DEVICE_ID, RECORD_HOTKEY, LOG_LEVEL, IDLE_TIMEOUT", config.EnvPath())
}
