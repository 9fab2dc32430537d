package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
	"github.com/kirillkom/messages-qa-service/internal/core/ports"
)

const (
	defaultTopK           = 5
	defaultSemanticWeight = 0.7
)

// RankerConfig carries the tunables of the hybrid ranking algorithm.
// SemanticWeight and its lexical complement always sum to 1.
type RankerConfig struct {
	SemanticWeight float64
	EmbedCacheTTL  time.Duration
}

func (c RankerConfig) normalize() RankerConfig {
	out := c
	if out.SemanticWeight <= 0 || out.SemanticWeight > 1 {
		out.SemanticWeight = defaultSemanticWeight
	}
	if out.EmbedCacheTTL <= 0 {
		out.EmbedCacheTTL = 24 * time.Hour
	}
	return out
}

// HybridRanker scores every corpus message against the question by blending
// cosine similarity of embeddings with lexical token overlap, and returns the
// top-k messages by combined score. It owns the embedding cache; nothing else
// reads or writes it.
type HybridRanker struct {
	embedder ports.Embedder
	cfg      RankerConfig
	cache    *embeddingCache
}

func NewHybridRanker(embedder ports.Embedder, cfg RankerConfig) *HybridRanker {
	cfg = cfg.normalize()
	return &HybridRanker{
		embedder: embedder,
		cfg:      cfg,
		cache:    newEmbeddingCache(cfg.EmbedCacheTTL, time.Now),
	}
}

// WithClock replaces the cache clock. Test hook.
func (r *HybridRanker) WithClock(now func() time.Time) *HybridRanker {
	r.cache.now = now
	return r
}

// Rank returns min(k, len(corpus)) candidates ordered by combined score
// descending, ties broken by corpus order. Output depends only on the
// question, the corpus snapshot and k. Defaulting k is the caller's concern;
// k == 0 means zero candidates.
func (r *HybridRanker) Rank(
	ctx context.Context,
	question string,
	corpus []domain.Message,
	k int,
) ([]domain.ScoredCandidate, error) {
	if k <= 0 || len(corpus) == 0 {
		return []domain.ScoredCandidate{}, nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed question", err)
	}

	vectors, err := r.messageVectors(ctx, corpus)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed corpus", err)
	}

	queryTokens := toTokenSet(question)
	candidates := make([]domain.ScoredCandidate, 0, len(corpus))
	for i, msg := range corpus {
		semantic := cosineSimilarity(queryVector, vectors[i])
		candidates = append(candidates, domain.ScoredCandidate{
			MessageID: msg.ID,
			UserName:  msg.UserName,
			Timestamp: msg.Timestamp,
			Text:      msg.Text,
			Semantic:  semantic,
			Lexical:   tokenOverlap(queryTokens, toTokenSet(msg.Text)),
		})
	}

	r.scoreAndOrder(candidates)

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// RankLexical scores by token overlap alone. The orchestrator uses it as the
// explicit degrade path when the embedding backend is down.
func (r *HybridRanker) RankLexical(
	question string,
	corpus []domain.Message,
	k int,
) []domain.ScoredCandidate {
	if k <= 0 || len(corpus) == 0 {
		return []domain.ScoredCandidate{}
	}

	queryTokens := toTokenSet(question)
	candidates := make([]domain.ScoredCandidate, 0, len(corpus))
	for _, msg := range corpus {
		lexical := tokenOverlap(queryTokens, toTokenSet(msg.Text))
		candidates = append(candidates, domain.ScoredCandidate{
			MessageID: msg.ID,
			UserName:  msg.UserName,
			Timestamp: msg.Timestamp,
			Text:      msg.Text,
			Lexical:   lexical,
			Combined:  lexical,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Combined > candidates[j].Combined
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// messageVectors resolves one vector per corpus message, serving from the
// embedding cache where entries are still live and batching the rest into a
// single embed call. Freshly computed vectors are cached even if the caller
// later abandons the query. Blank-bodied messages are never embedded; their
// nil vector scores zero semantic similarity.
func (r *HybridRanker) messageVectors(ctx context.Context, corpus []domain.Message) ([][]float32, error) {
	vectors := make([][]float32, len(corpus))
	missing := make([]int, 0, len(corpus))
	texts := make([]string, 0, len(corpus))

	for i, msg := range corpus {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		key := embeddingKey(msg)
		if vec, ok := r.cache.get(key); ok {
			vectors[i] = vec
			continue
		}
		missing = append(missing, i)
		texts = append(texts, msg.Text)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missing))
	}

	for j, i := range missing {
		vectors[i] = embedded[j]
		r.cache.put(embeddingKey(corpus[i]), embedded[j])
	}
	return vectors, nil
}

func (r *HybridRanker) scoreAndOrder(candidates []domain.ScoredCandidate) {
	semanticWeight := r.cfg.SemanticWeight
	lexicalWeight := 1 - semanticWeight

	for i := range candidates {
		// Cosine similarity lives in [-1, 1]; shift to [0, 1] so the
		// weighted blend stays comparable with the lexical score.
		normalized := (candidates[i].Semantic + 1) / 2
		candidates[i].Combined = semanticWeight*normalized + lexicalWeight*candidates[i].Lexical
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Combined > candidates[j].Combined
	})
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
