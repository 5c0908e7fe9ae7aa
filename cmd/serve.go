package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"interview-copilot/internal/archive"
	"interview-copilot/internal/cache"
	"interview-copilot/internal/config"
	"interview-copilot/internal/logging"
	"interview-copilot/internal/provider"
	"interview-copilot/internal/room"
	"interview-copilot/internal/server"
	"interview-copilot/internal/session"
	"interview-copilot/internal/summary"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	// Answer cache over the configured driver.
	var storeOpts []cache.StoreOption
	if cfg.Cache.Driver == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		storeOpts = append(storeOpts, cache.WithRedisClient(client))
	}
	store, err := cache.NewStore(cache.StoreType(cfg.Cache.Driver), storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}
	defer store.Close()

	answers := cache.NewAnswerCache(store)
	if _, err := answers.LoadSeedFile(ctx, cfg.Cache.SeedPath); err != nil {
		return err
	}

	// LLM backends behind one registry.
	ollamaBackend := provider.NewOllama(cfg.Provider.Ollama.BaseURL, cfg.Provider.Ollama.Model, cfg.Provider.Ollama.Timeout.Std())
	openaiBackend := provider.NewOpenAI(cfg.Provider.OpenAI.BaseURL, cfg.Provider.OpenAI.APIKey, cfg.Provider.OpenAI.Model, cfg.Provider.OpenAI.Timeout.Std())

	registry := provider.NewRegistry()
	registry.Register(ollamaBackend)
	registry.Register(openaiBackend)
	if err := registry.SetDefault(cfg.Provider.Default); err != nil {
		return err
	}

	if cfg.Provider.Default == "ollama" {
		if err := ollamaBackend.HealthCheck(); err != nil {
			logging.Warnf("%v", err)
		} else if models, err := ollamaBackend.ListModels(); err == nil && !hasModel(models, cfg.Provider.Ollama.Model) {
			logging.Warnf("model %q not found in Ollama (available: %s)",
				cfg.Provider.Ollama.Model, strings.Join(models, ", "))
		}
	}
	logging.Infof("providers registered: %s", strings.Join(registry.Names(), ", "))

	// Summaries run through the default backend unless a dedicated
	// model is configured.
	summaryBackend, err := registry.Resolve("")
	if err != nil {
		return err
	}
	summaryModel := cfg.Summary.Model

	summaryCache := summary.NewCache(summary.PlainTextExtractor{}, summary.HeuristicDetector{}, cfg.Summary.TTL.Std())
	summaries := summary.NewService(summaryCache,
		cfg.Summary.ResumeDir, cfg.Summary.JobDir,
		summary.ResumeCompute(summaryBackend, summaryModel),
		summary.JobCompute(summaryBackend, summaryModel),
	)

	deps := session.Deps{
		Hub:              room.NewHub(),
		Answers:          answers,
		Summaries:        summaries,
		Adapter:          provider.NewAdapter(registry),
		Pool:             session.NewWorkerPool(cfg.Workers),
		DefaultModel:     defaultModel(cfg),
		DefaultProvider:  cfg.Provider.Default,
		ReplayBatchWords: cfg.Cache.ReplayBatchWords,
		ReplayDelay:      cfg.Cache.ReplayDelay.Std(),
	}

	var arch *archive.Archive
	if cfg.Archive.Enabled {
		arch, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer arch.Close()
		deps.Recorder = arch
	}

	srv := server.New(cfg.Server, deps, answers, summaries, arch, cfg.Cache.SeedPath)
	return srv.ListenAndServe(cfg.Server.Addr)
}

func hasModel(models []string, name string) bool {
	for _, m := range models {
		if m == name {
			return true
		}
	}
	return false
}

func defaultModel(cfg *config.Config) string {
	if cfg.Provider.Default == "openai" {
		return cfg.Provider.OpenAI.Model
	}
	return cfg.Provider.Ollama.Model
}
