package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/yihu111/tech-europe-hackathon/internal/ai"
	"github.com/yihu111/tech-europe-hackathon/internal/ai/gemini"
	"github.com/yihu111/tech-europe-hackathon/internal/analyzer"
	"github.com/yihu111/tech-europe-hackathon/internal/frameworks"
	"github.com/yihu111/tech-europe-hackathon/internal/github"
	"github.com/yihu111/tech-europe-hackathon/internal/logger"
	"github.com/yihu111/tech-europe-hackathon/internal/manifest"
	"github.com/yihu111/tech-europe-hackathon/internal/pipeline"
	"github.com/yihu111/tech-europe-hackathon/internal/rag"
	"github.com/yihu111/tech-europe-hackathon/internal/secrets"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// buildPipeline wires the full analysis pipeline from configuration.
// The returned generator is shared with the question and job-search
// commands so they talk to the same model provider.
func buildPipeline(ctx context.Context, config *Config, log *zap.Logger) (*pipeline.Pipeline, ai.Generator, error) {
	token, err := resolveGitHubToken(config)
	if err != nil {
		return nil, nil, err
	}

	gh := github.New(log, token)
	if config.UserAgent != "" {
		gh.UserAgent = config.UserAgent
	}

	table := manifest.DefaultTable()
	if config.Signatures != nil && config.Signatures.ManifestTable != "" {
		table, err = manifest.LoadTable(config.Signatures.ManifestTable)
		if err != nil {
			return nil, nil, fmt.Errorf("loading manifest table: %w", err)
		}
	}

	signatures := frameworks.DefaultSignatures()
	if config.Signatures != nil && config.Signatures.FrameworkTable != "" {
		signatures, err = frameworks.LoadSignatures(config.Signatures.FrameworkTable)
		if err != nil {
			return nil, nil, fmt.Errorf("loading framework signatures: %w", err)
		}
	}

	generator, err := buildGenerator(ctx, config, log)
	if err != nil {
		return nil, nil, err
	}

	analyzerCfg := analyzer.Config{}
	if config.Analyzer != nil {
		analyzerCfg.Workers = config.Analyzer.Workers
		analyzerCfg.Timeout = config.Analyzer.Timeout
		analyzerCfg.MaxLogLength = config.Analyzer.MaxLogLength
	}

	p := pipeline.New(pipeline.Deps{
		Discoverer: gh,
		Classifier: manifest.NewClassifier(gh, table, log),
		Matcher:    frameworks.NewMatcher(signatures),
		Analyzer:   analyzer.New(gh, generator, analyzerCfg, log),
		Logger:     log,
	})

	return p, generator, nil
}

func buildGenerator(ctx context.Context, config *Config, log *zap.Logger) (ai.Generator, error) {
	provider := "gemini"
	if config.AI != nil && config.AI.Provider != "" {
		provider = config.AI.Provider
	}
	if provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}

	geminiCfg := config.AI.GetGemini()

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: geminiCfg.APIKey,
		File:  geminiCfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	modelLog := logger.WithCommonFields(log, provider, geminiCfg.Model)

	return gemini.NewGenerator(ctx, apiKey, geminiCfg.Model, geminiCfg.MaxRetries, modelLog)
}

// buildIndexer wires the embeddings provider, its cache, and the
// in-memory vector store.
func buildIndexer(config *Config, log *zap.Logger) (*rag.Indexer, error) {
	embCfg := rag.EmbedderConfig{}
	cacheSize := 0
	var keySource secrets.Source

	if config.Embeddings != nil {
		embCfg.Model = config.Embeddings.Model
		embCfg.BaseURL = config.Embeddings.BaseURL
		cacheSize = config.Embeddings.CacheSize
		keySource = secrets.Source{
			Value: config.Embeddings.APIKey,
			File:  config.Embeddings.APIKeyFile,
		}
	}
	if embCfg.Model == "" {
		embCfg.Model = "text-embedding-3-small"
	}

	keySource.Name = "embeddings api key"
	keySource.Env = "OPENAI_API_KEY"

	apiKey, err := secrets.Load(keySource)
	if err != nil {
		return nil, err
	}
	embCfg.APIKey = apiKey

	embedder, err := rag.NewCachedEmbedder(rag.NewOpenAIEmbedder(embCfg), cacheSize)
	if err != nil {
		return nil, err
	}

	return rag.NewIndexer(embedder, rag.NewMemoryStore(), log), nil
}

func resolveGitHubToken(config *Config) (string, error) {
	src := secrets.Source{
		Name: "github token",
		Env:  "GITHUB_TOKEN",
	}
	if config.GitHub != nil {
		src.Value = config.GitHub.Token
		src.File = strings.TrimSpace(config.GitHub.TokenFile)
	}
	if src.File == "" {
		src.File = strings.TrimSpace(viper.GetString("github.token-file"))
	}

	// An anonymous client still works against public repositories,
	// just with a far lower rate limit.
	token, err := secrets.Load(src)
	if err != nil {
		return "", nil
	}
	return token, nil
}

// GetGemini returns the gemini section with defaults applied.
func (c *AIConfig) GetGemini() GeminiConfig {
	if c == nil || c.Gemini == nil {
		return GeminiConfig{}
	}
	return *c.Gemini
}
