package ports

import (
	"context"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
)

// QuestionAnswerer runs the full fetch -> rank -> synthesize pipeline.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) (*domain.AnswerResult, error)
}

// Ranker selects the top-k corpus messages for a question.
type Ranker interface {
	Rank(ctx context.Context, question string, corpus []domain.Message, k int) ([]domain.ScoredCandidate, error)
}

// Synthesizer turns ranked candidates into a source-attributed answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, candidates []domain.ScoredCandidate) (*domain.AnswerResult, error)
}
