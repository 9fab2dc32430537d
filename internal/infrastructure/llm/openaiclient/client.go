package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/messages-qa-service/internal/infrastructure/resilience"
)

// Client wraps one OpenAI-compatible endpoint for both embeddings and chat
// completions. Every outbound call goes through the resilience executor, so
// transient failures are retried with backoff while auth and bad-request
// failures fail fast.
type Client struct {
	api         *openai.Client
	chatModel   string
	embedModel  string
	temperature float32
	maxTokens   int
	executor    *resilience.Executor
}

type Config struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	Temperature float32
	MaxTokens   int
}

func New(cfg Config, executor *resilience.Executor) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(clientConfig),
		chatModel:   cfg.ChatModel,
		embedModel:  cfg.EmbedModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		executor:    executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, errors.New("embed input contains empty text")
		}
	}

	var vectors [][]float32
	err := e.client.executor.Execute(ctx, "openai_embed", func(ctx context.Context) error {
		resp, err := e.client.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(e.client.embedModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = data.Embedding
		}
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("embed query text is empty")
	}
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// GenerateJSON issues one chat completion in JSON mode and returns the raw
// assistant message. Structured validation is the caller's job.
func (g *Generator) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var content string
	err := g.client.executor.Execute(ctx, "openai_generate", func(ctx context.Context) error {
		resp, err := g.client.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.client.chatModel,
			Temperature: g.client.temperature,
			MaxTokens:   g.client.maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("chat completion returned no choices")
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return "", err
	}
	return content, nil
}
