package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run owns the whole flow so every deferred teardown fires before the
// process exit code is decided.
func run() int {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	url := flag.String("url", "", "Storefront URL to run against (overrides config)")
	headless := flag.Bool("headless", false, "Run the browser headless")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	if *url != "" {
		cfg.BaseURL = *url
	}
	if *headless {
		cfg.Headless = true
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer logger.Sync()

	session, err := newSession(cfg, logger)
	if err != nil {
		logger.Error("browser session setup failed", zap.Error(err))
		return 1
	}
	defer session.Close()

	outcome := runPurchaseFlow(session, cfg, logger)
	switch outcome.Kind {
	case OutcomeSkipped:
		logger.Info("run finished", zap.Stringer("outcome", outcome.Kind),
			zap.String("reason", outcome.Reason))
	case OutcomeFailed:
		logger.Error("run finished", zap.Stringer("outcome", outcome.Kind),
			zap.String("stage", outcome.Stage), zap.String("reason", outcome.Reason))
	default:
		logger.Info("run finished", zap.Stringer("outcome", outcome.Kind))
	}
	return exitCode(outcome.Kind)
}

// exitCode maps a run outcome to the process exit code: a skip is a
// legitimate zero, only a failure is non-zero.
func exitCode(kind OutcomeKind) int {
	if kind == OutcomeFailed {
		return 1
	}
	return 0
}
