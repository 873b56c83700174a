// Package bootstrap builds the analyzer and its collaborators from the
// configuration.
package bootstrap

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"subsidyscout/internal/analyzer"
	"subsidyscout/internal/config"
	"subsidyscout/internal/llm"
	"subsidyscout/internal/scraper"
	"subsidyscout/internal/vocab"
)

// App is a ready to use analyzer plus what the shims want to report
// about it.
type App struct {
	Analyzer    *analyzer.Service
	LLMProvider string
	LLMModel    string
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Build wires the scraper, oracle and vocabulary. An oracle that is not
// configured is not an error here: analyses then fail with an error
// result, which keeps the API answering health checks. A vocabulary file
// that exists but cannot be read is an error.
func Build(cfg *config.Config, providerOverride string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v, err := vocab.Load(cfg.Classifier.VocabularyPath)
	if err != nil {
		return nil, err
	}
	if v.Empty() {
		logger.Info("no attestation vocabulary loaded, using generic classification prompt")
	} else {
		logger.Info("attestation vocabulary loaded", "fields", v.Len())
	}

	client := scraper.NewClient(cfg.ScraperTimeout(), cfg.Rod.Enabled, cfg.Rod.BrowserURL)

	app := &App{}
	oracle, err := llm.NewClientFromConfig(cfg, providerOverride)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("llm provider not configured, analyses will fail", "error", err)
		oracle = nil
	case err != nil:
		return nil, err
	default:
		app.LLMProvider, app.LLMModel = llm.Describe(oracle)
	}

	app.Analyzer = analyzer.NewService(cfg, client, oracle, v, logger)
	return app, nil
}
