package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/config"
	"github.com/datavibe/vibe-engine/pkg/dataset"
	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/pipeline"
	"github.com/datavibe/vibe-engine/pkg/schema"
)

// Version is set at build time via ldflags
var Version = "dev"

// sampleRowLimit bounds the profiling sample pulled from the store.
const sampleRowLimit = 200

func main() {
	csvPath := flag.String("csv", "", "CSV file to analyze (ignored when DATASET_POSTGRES_URL is set)")
	table := flag.String("table", "dataset", "Table name the dataset is exposed as")
	query := flag.String("q", "", "Natural language question to answer")
	flag.Parse()

	if *query == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("vibe-engine starting",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.Strings("provider_priority", cfg.Providers.Priority))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := buildProviderChain(cfg, logger)
	if err != nil {
		logger.Fatal("no usable model provider", zap.Error(err))
	}

	exec, closeExec, err := buildExecutor(ctx, cfg, *table, *csvPath, logger)
	if err != nil {
		logger.Fatal("execution gateway setup failed", zap.Error(err))
	}
	defer closeExec()

	sample, err := sampleDataset(ctx, exec, *table)
	if err != nil {
		logger.Fatal("dataset sampling failed", zap.Error(err))
	}

	orch := pipeline.New(cfg, gen, exec, logger)
	resp := orch.Run(ctx, *query, sample, nil)

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		logger.Fatal("response serialization failed", zap.Error(err))
	}
	fmt.Println(string(out))

	if resp.Status == models.StatusFailed {
		os.Exit(1)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildProviderChain creates one Generator per configured provider in
// priority order and wraps them in the fallback chain.
func buildProviderChain(cfg *config.Config, logger *zap.Logger) (llm.Generator, error) {
	var providers []llm.Generator

	for _, name := range cfg.Providers.Priority {
		switch name {
		case "openai":
			if !cfg.Providers.OpenAI.IsAvailable() {
				logger.Warn("openai provider not configured, skipping")
				continue
			}
			client, err := llm.NewOpenAIClient(&llm.OpenAIConfig{
				Endpoint:  cfg.Providers.OpenAI.Endpoint,
				Model:     cfg.Providers.OpenAI.Model,
				APIKey:    cfg.Providers.OpenAI.APIKey,
				MaxTokens: cfg.Providers.OpenAI.MaxTokens,
			}, logger)
			if err != nil {
				return nil, err
			}
			providers = append(providers, client)
		case "anthropic":
			if !cfg.Providers.Anthropic.IsAvailable() {
				logger.Warn("anthropic provider not configured, skipping")
				continue
			}
			client, err := llm.NewAnthropicClient(&llm.AnthropicConfig{
				Model:     cfg.Providers.Anthropic.Model,
				APIKey:    cfg.Providers.Anthropic.APIKey,
				MaxTokens: cfg.Providers.Anthropic.MaxTokens,
			}, logger)
			if err != nil {
				return nil, err
			}
			providers = append(providers, client)
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("none of the configured providers (%v) is usable", cfg.Providers.Priority)
	}

	return llm.NewChain(providers, cfg.Providers.MaxConcurrent, logger), nil
}

// buildExecutor picks the gateway backend: PostgreSQL when a URL is
// configured, otherwise in-process DuckDB over the given CSV.
func buildExecutor(ctx context.Context, cfg *config.Config, table, csvPath string, logger *zap.Logger) (dataset.Executor, func(), error) {
	if cfg.Dataset.PostgresURL != "" {
		exec, err := dataset.NewPostgresExecutor(ctx, cfg.Dataset.PostgresURL, cfg.Dataset.QueryTimeout, logger)
		if err != nil {
			return nil, nil, err
		}
		return exec, exec.Close, nil
	}

	if csvPath == "" {
		return nil, nil, fmt.Errorf("either -csv or DATASET_POSTGRES_URL is required")
	}

	exec, err := dataset.NewDuckDBExecutor(cfg.Dataset.QueryTimeout, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := exec.RegisterCSV(ctx, table, csvPath); err != nil {
		exec.Close()
		return nil, nil, err
	}
	return exec, func() { exec.Close() }, nil
}

// sampleDataset pulls a bounded sample through the gateway and reshapes
// it into the builder's input form.
func sampleDataset(ctx context.Context, exec dataset.Executor, table string) (schema.RawDataset, error) {
	rs, err := exec.Execute(ctx, fmt.Sprintf("SELECT * FROM %q", table), sampleRowLimit)
	if err != nil {
		return schema.RawDataset{}, err
	}

	sample := schema.RawDataset{TableName: table}
	for _, col := range rs.Columns {
		sample.Columns = append(sample.Columns, schema.RawColumn{
			Name:         col.Name,
			DeclaredType: col.Type,
		})
	}
	for _, row := range rs.Rows {
		values := make([]any, len(rs.Columns))
		for i, col := range rs.Columns {
			values[i] = row[col.Name]
		}
		sample.Rows = append(sample.Rows, values)
	}
	return sample, nil
}
