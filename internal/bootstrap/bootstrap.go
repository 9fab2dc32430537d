package bootstrap

import (
	"github.com/kirillkom/messages-qa-service/internal/config"
	"github.com/kirillkom/messages-qa-service/internal/core/ports"
	"github.com/kirillkom/messages-qa-service/internal/core/usecase"
	"github.com/kirillkom/messages-qa-service/internal/infrastructure/llm/openaiclient"
	"github.com/kirillkom/messages-qa-service/internal/infrastructure/messages"
	"github.com/kirillkom/messages-qa-service/internal/infrastructure/resilience"
	"github.com/kirillkom/messages-qa-service/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	QA      ports.QuestionAnswerer
	Metrics *metrics.HTTPServerMetrics
}

func New(cfg config.Config) *App {
	llmPolicy := resilience.DefaultConfig()
	llmPolicy.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	llmPolicy.RetryInitialBackoff = cfg.LLMRetryBackoff
	llmExecutor := resilience.NewExecutor(llmPolicy)

	sourceExecutor := resilience.NewExecutor(resilience.DefaultConfig())

	source := messages.New(messages.Config{
		BaseURL:      cfg.MessagesAPIURL,
		PageSize:     cfg.MessagesPageSize,
		Timeout:      cfg.MessagesAPITimeout,
		CacheTTL:     cfg.CorpusCacheTTL,
		StaleCeiling: cfg.CorpusCacheStaleCeiling,
	}, sourceExecutor)

	llmClient := openaiclient.New(openaiclient.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		ChatModel:   cfg.OpenAIChatModel,
		EmbedModel:  cfg.OpenAIEmbedModel,
		Temperature: cfg.OpenAITemperature,
		MaxTokens:   cfg.OpenAIMaxTokens,
	}, llmExecutor)

	ranker := usecase.NewHybridRanker(openaiclient.NewEmbedder(llmClient), usecase.RankerConfig{
		SemanticWeight: cfg.QASemanticWeight,
		EmbedCacheTTL:  cfg.EmbedCacheTTL,
	})
	synthesizer := usecase.NewAnswerSynthesizer(openaiclient.NewGenerator(llmClient), usecase.SynthesizerConfig{
		MaxContextChars: cfg.MaxContextChars,
	})
	qa := usecase.NewQAUseCase(source, ranker, synthesizer, usecase.QAConfig{
		TopK:            cfg.QATopK,
		LexicalFallback: cfg.QALexicalFallback,
	})

	return &App{
		Config:  cfg,
		QA:      qa,
		Metrics: metrics.NewHTTPServerMetrics("messages-qa"),
	}
}
