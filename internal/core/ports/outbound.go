package ports

import (
	"context"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
)

// MessageSource fetches the full message corpus. The bool reports degraded
// mode: the corpus came from a stale cache because the live fetch failed.
type MessageSource interface {
	FetchAllMessages(ctx context.Context) ([]domain.Message, bool, error)
}

// Embedder builds fixed-length vectors for message bodies and query text.
// Embed returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator issues one grounded generation request. Prompt content and
// response parsing are the synthesizer's concern; the generator only moves
// text to the model and back.
type AnswerGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
