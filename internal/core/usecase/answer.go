package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
	"github.com/kirillkom/messages-qa-service/internal/core/ports"
)

// QAConfig carries the orchestrator tunables.
type QAConfig struct {
	TopK            int
	LexicalFallback bool
}

// QAUseCase composes source, ranker and synthesizer into the end-to-end
// pipeline: fetch -> rank -> synthesize. Each stage is synchronous and the
// orchestrator never retries; retries belong to the adapters underneath.
type QAUseCase struct {
	source      ports.MessageSource
	ranker      *HybridRanker
	synthesizer ports.Synthesizer
	cfg         QAConfig
}

func NewQAUseCase(
	source ports.MessageSource,
	ranker *HybridRanker,
	synthesizer ports.Synthesizer,
	cfg QAConfig,
) *QAUseCase {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &QAUseCase{
		source:      source,
		ranker:      ranker,
		synthesizer: synthesizer,
		cfg:         cfg,
	}
}

func (uc *QAUseCase) AnswerQuestion(ctx context.Context, question string) (*domain.AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("question is empty"))
	}

	corpus, degraded, err := uc.source.FetchAllMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}
	if degraded {
		slog.Warn("serving_stale_corpus", "corpus_size", len(corpus))
	}

	candidates, err := uc.ranker.Rank(ctx, question, corpus, uc.cfg.TopK)
	if err != nil {
		if !uc.cfg.LexicalFallback || !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("rank corpus: %w", err)
		}
		slog.Warn("lexical_only_ranking", "error", err)
		candidates = uc.ranker.RankLexical(question, corpus, uc.cfg.TopK)
		degraded = true
	}

	result, err := uc.synthesizer.Synthesize(ctx, question, candidates)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	result.Degraded = result.Degraded || degraded
	return result, nil
}
