package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/resume-autopilot/internal/config"
	"github.com/jonathan/resume-autopilot/internal/db"
	"github.com/jonathan/resume-autopilot/internal/fetch"
	"github.com/jonathan/resume-autopilot/internal/ingestion"
	"github.com/jonathan/resume-autopilot/internal/llm"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/notify"
	"github.com/jonathan/resume-autopilot/internal/observability"
	"github.com/jonathan/resume-autopilot/internal/pipeline"
	"github.com/jonathan/resume-autopilot/internal/polling"
	"github.com/jonathan/resume-autopilot/internal/resumeapi"
	"github.com/jonathan/resume-autopilot/internal/rewriting"
)

// loadSettings reads the environment and layers the optional config file on top of it.
func loadSettings(configPath string) (*config.Config, error) {
	envCfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if configPath == "" {
		return envCfg, nil
	}

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	merged := fileCfg.MergeWithDefaults(*envCfg)
	return &merged, nil
}

func newLogger(cfg *config.Config, debug bool, out io.Writer) logging.Logger {
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(out, logging.Config{Level: level, Format: cfg.LogFormat})
}

// llmConfig builds the completion client configuration for the selected provider.
func llmConfig(cfg *config.Config) (*llm.Config, string) {
	if cfg.LLMProvider == config.ProviderGemini {
		c := llm.DefaultGeminiConfig().WithModel(llm.TierAdvanced, cfg.GeminiModel)
		c.Timeout = cfg.LLMTimeout()
		return c, cfg.GeminiAPIKey
	}
	c := llm.DefaultOpenAIConfig().WithModel(llm.TierAdvanced, cfg.OpenAIModel)
	c.BaseURL = cfg.OpenAIBaseURL
	c.Timeout = cfg.LLMTimeout()
	return c, cfg.GitHubPAT
}

func newNotifier(cfg *config.Config, log logging.Logger) *notify.Telegram {
	return notify.NewTelegram(notify.Options{
		APIURL:   cfg.TelegramAPIURL,
		BotToken: cfg.TelegramBotToken,
		ChatID:   cfg.TelegramChatID,
		Timeout:  cfg.HTTPTimeout(),
		Logger:   log,
	})
}

// services holds everything a run needs plus the resources to release afterwards.
type services struct {
	pipeline *pipeline.Pipeline
	closers  []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

type wiring struct {
	useBrowser bool
	out        io.Writer
}

// buildServices wires the pipeline from cfg. The run-history store is connected only when
// DATABASE_URL is set; a connection failure is logged and the run continues without it.
func buildServices(ctx context.Context, cfg *config.Config, log logging.Logger, w wiring) (*services, error) {
	svc := &services{}

	api, err := resumeapi.New(resumeapi.Options{
		BaseURL:  cfg.ResumeAPIBaseURL,
		Username: cfg.ResumeAPIUsername,
		Password: cfg.ResumeAPIPassword,
		Timeout:  cfg.HTTPTimeout(),
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	llmCfg, apiKey := llmConfig(cfg)
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	svc.closers = append(svc.closers, func() { _ = client.Close() })

	resolver := &ingestion.Resolver{
		Fetcher: fetch.NewFetcher(fetch.Options{Timeout: cfg.HTTPTimeout(), Logger: log}),
		Logger:  log,
	}
	if w.useBrowser {
		resolver.Renderer = fetch.ChromeRenderer{Timeout: cfg.HTTPTimeout(), Logger: log}
	}

	p := &pipeline.Pipeline{
		Auth:      api,
		Resumes:   api,
		Rewriter:  rewriting.New(client, log),
		Generator: api,
		Poller: &polling.Poller{
			Querier:     api,
			Interval:    cfg.PollInterval(),
			MaxAttempts: cfg.MaxPollAttempts,
			Sleeper:     polling.RealSleeper{},
			Logger:      log,
		},
		Notifier:   newNotifier(cfg, log),
		Resolver:   resolver,
		Printer:    observability.NewPrinter(w.out),
		Logger:     log,
		PollBudget: cfg.PollBudget(),
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("Failed to connect to database, continuing without run history", "error", err)
		} else if err := database.EnsureSchema(ctx); err != nil {
			log.Warn("Failed to prepare run history table, continuing without it", "error", err)
			database.Close()
		} else {
			p.Recorder = database
			svc.closers = append(svc.closers, database.Close)
		}
	}

	svc.pipeline = p
	return svc, nil
}
