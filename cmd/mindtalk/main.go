package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"MindTalk/internal/chat"
	"MindTalk/internal/config"
	"MindTalk/internal/resources"
	"MindTalk/internal/speech"
	"MindTalk/internal/store"
	"MindTalk/internal/telemetry"
	"MindTalk/internal/tui"
)

// Demo conversations shown on first launch, oldest last.
var demoChats = []struct {
	title string
	ago   time.Duration
}{
	{"Stress management techniques", 2 * time.Hour},
	{"Dealing with exam anxiety", 24 * time.Hour},
	{"Sleep improvement strategies", 3 * 24 * time.Hour},
}

func main() {
	var cfg config.Config

	flag.StringVar(&cfg.SpeechURL, "speech-url", "", "WebSocket URL of a remote speech service")
	flag.StringVar(&cfg.SpeechCmd, "speech-cmd", "", "Path to a local speech engine command")
	flag.BoolVar(&cfg.SpeechOutput, "speech-output", false, "Vocalize assistant replies on startup")
	flag.DurationVar(&cfg.ReplyDelay, "reply-delay", config.DefaultReplyDelay, "Delay before the assistant reply is appended")
	flag.StringVar(&cfg.LexiconPath, "lexicon", "", "YAML file overriding the built-in keyword/reply lexicon")
	flag.StringVar(&cfg.ResourcesDB, "resources-db", "mindtalk_resources.db", "SQLite file for the support-resource catalog")
	flag.BoolVar(&cfg.SeedDemo, "seed-demo", true, "Pre-seed demo conversations")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&cfg.NoTUI, "no-tui", false, "Run the plain stdin loop instead of the two-pane UI")

	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()
	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer cleanup()

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	lex, err := config.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		// A broken lexicon file falls back to the built-in table.
		logger.Warn("using default lexicon", "error", err)
	}

	st := store.NewStore(lex.WelcomeMessage)
	if cfg.SeedDemo {
		for _, demo := range demoChats {
			st.Seed(demo.title, time.Now().Add(-demo.ago))
		}
	}

	bridge := connectSpeech(cfg, logger)
	defer bridge.Close()

	catalog, err := resources.Open(cfg.ResourcesDB)
	if err != nil {
		logger.Warn("resource catalog unavailable", "error", err)
		catalog = nil
	} else {
		defer catalog.Close()
	}

	sess := chat.NewSession(cfg, lex, st, bridge, catalog, logger, tracer, meter)
	defer sess.Close()

	if cfg.NoTUI {
		return sess.Run()
	}
	return tui.Run(sess)
}

// connectSpeech picks the speech transport: a remote WebSocket service, a
// local engine subprocess, or none. A failed connection degrades to the
// capability-absent bridge rather than aborting startup.
func connectSpeech(cfg config.Config, logger *slog.Logger) speech.Bridge {
	switch {
	case cfg.SpeechURL != "":
		bridge, err := speech.NewWebSocketBridge(cfg.SpeechURL, logger)
		if err != nil {
			logger.Warn("speech service unavailable, voice features disabled", "error", err)
			return speech.NewUnavailable()
		}
		return bridge
	case cfg.SpeechCmd != "":
		bridge, err := speech.NewStdioBridge(cfg.SpeechCmd, logger)
		if err != nil {
			logger.Warn("speech engine unavailable, voice features disabled", "error", err)
			return speech.NewUnavailable()
		}
		return bridge
	default:
		return speech.NewUnavailable()
	}
}
