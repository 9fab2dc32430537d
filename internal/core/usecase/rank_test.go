package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
)

type embedderFake struct {
	queryVector []float32
	vectors     map[string][]float32
	queryErr    error
	embedErr    error

	embedCalls      int
	embeddedBatches [][]string
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	f.embeddedBatches = append(f.embeddedBatches, texts)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	// Mirrors the openaiclient adapter contract.
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, errors.New("embed input contains empty text")
		}
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := f.vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = []float32{0, 0}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryVector, nil
}

func tripCorpus() []domain.Message {
	return []domain.Message{
		{ID: "1", UserName: "Layla", Text: "I am planning my trip to London next month."},
		{ID: "2", UserName: "Amira", Text: "That sounds great! When exactly are you going?"},
		{ID: "3", UserName: "Layla", Text: "I will be there from February 1st to February 15th."},
	}
}

func tripEmbedder() *embedderFake {
	return &embedderFake{
		queryVector: []float32{1, 0},
		vectors: map[string][]float32{
			"I am planning my trip to London next month.":         {0.9, 0.1},
			"That sounds great! When exactly are you going?":      {0.1, 0.9},
			"I will be there from February 1st to February 15th.": {0.95, 0.05},
		},
	}
}

func TestRankReturnsLondonMessagesFirst(t *testing.T) {
	ranker := NewHybridRanker(tripEmbedder(), RankerConfig{})

	got, err := ranker.Rank(context.Background(), "When is Layla planning her trip to London?", tripCorpus(), 5)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].MessageID != "1" && got[0].MessageID != "3" {
		t.Fatalf("expected a London-related message first, got id %s", got[0].MessageID)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	ranker := NewHybridRanker(tripEmbedder(), RankerConfig{})

	first, err := ranker.Rank(context.Background(), "trip to London", tripCorpus(), 3)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	second, err := ranker.Rank(context.Background(), "trip to London", tripCorpus(), 3)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output on repetition:\n%v\n%v", first, second)
	}
}

func TestRankBoundsResultToK(t *testing.T) {
	corpus := tripCorpus()
	cases := []struct {
		k    int
		want int
	}{
		{k: 1, want: 1},
		{k: 2, want: 2},
		{k: 10, want: 3},
		{k: 0, want: 0},
		{k: -1, want: 0},
	}

	for _, tc := range cases {
		ranker := NewHybridRanker(tripEmbedder(), RankerConfig{})
		got, err := ranker.Rank(context.Background(), "trip", corpus, tc.k)
		if err != nil {
			t.Fatalf("Rank(k=%d) error = %v", tc.k, err)
		}
		if len(got) != tc.want {
			t.Fatalf("Rank(k=%d) returned %d candidates, want %d", tc.k, len(got), tc.want)
		}
	}
}

func TestRankEmptyCorpusReturnsEmptyNoError(t *testing.T) {
	embedder := tripEmbedder()
	ranker := NewHybridRanker(embedder, RankerConfig{})

	got, err := ranker.Rank(context.Background(), "anything", nil, 5)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if embedder.embedCalls != 0 {
		t.Fatalf("expected no embed calls for empty corpus, got %d", embedder.embedCalls)
	}
}

func TestRankOutputIsSortedByCombinedScore(t *testing.T) {
	ranker := NewHybridRanker(tripEmbedder(), RankerConfig{})

	got, err := ranker.Rank(context.Background(), "When is Layla planning her trip to London?", tripCorpus(), 5)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Combined < got[i].Combined {
			t.Fatalf("candidates out of order at %d: %f < %f", i, got[i-1].Combined, got[i].Combined)
		}
	}
}

func TestRankBreaksTiesByCorpusOrder(t *testing.T) {
	corpus := []domain.Message{
		{ID: "a", Text: "identical text"},
		{ID: "b", Text: "identical text"},
	}
	embedder := &embedderFake{
		queryVector: []float32{1, 0},
		vectors:     map[string][]float32{"identical text": {0.5, 0.5}},
	}
	ranker := NewHybridRanker(embedder, RankerConfig{})

	got, err := ranker.Rank(context.Background(), "identical text", corpus, 2)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got[0].MessageID != "a" || got[1].MessageID != "b" {
		t.Fatalf("expected corpus order preserved on ties, got %s then %s", got[0].MessageID, got[1].MessageID)
	}
}

func TestRankEmbeddingFailureReturnsTypedError(t *testing.T) {
	embedder := &embedderFake{queryErr: errors.New("backend down")}
	ranker := NewHybridRanker(embedder, RankerConfig{})

	_, err := ranker.Rank(context.Background(), "q", tripCorpus(), 5)
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestRankServesRepeatedQueriesFromEmbeddingCache(t *testing.T) {
	embedder := tripEmbedder()
	ranker := NewHybridRanker(embedder, RankerConfig{})

	if _, err := ranker.Rank(context.Background(), "trip", tripCorpus(), 5); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if _, err := ranker.Rank(context.Background(), "trip again", tripCorpus(), 5); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if embedder.embedCalls != 1 {
		t.Fatalf("expected 1 batched embed call, got %d", embedder.embedCalls)
	}
}

func TestRankEmbeddingCacheTTLBoundary(t *testing.T) {
	embedder := tripEmbedder()
	ttl := 24 * time.Hour
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	ranker := NewHybridRanker(embedder, RankerConfig{EmbedCacheTTL: ttl}).
		WithClock(func() time.Time { return now })

	if _, err := ranker.Rank(context.Background(), "trip", tripCorpus(), 5); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	now = base.Add(ttl - time.Second)
	if _, err := ranker.Rank(context.Background(), "trip", tripCorpus(), 5); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if embedder.embedCalls != 1 {
		t.Fatalf("expected cache hit just before TTL, got %d embed calls", embedder.embedCalls)
	}

	now = base.Add(ttl + time.Second)
	if _, err := ranker.Rank(context.Background(), "trip", tripCorpus(), 5); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if embedder.embedCalls != 2 {
		t.Fatalf("expected recompute just past TTL, got %d embed calls", embedder.embedCalls)
	}
}

func TestRankReembedsEditedContentUnderReusedID(t *testing.T) {
	embedder := tripEmbedder()
	ranker := NewHybridRanker(embedder, RankerConfig{})

	corpus := []domain.Message{{ID: "1", Text: "original body"}}
	if _, err := ranker.Rank(context.Background(), "q", corpus, 1); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	edited := []domain.Message{{ID: "1", Text: "edited body"}}
	if _, err := ranker.Rank(context.Background(), "q", edited, 1); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if embedder.embedCalls != 2 {
		t.Fatalf("expected fresh embedding for edited content, got %d embed calls", embedder.embedCalls)
	}
}

func TestRankSkipsBlankMessagesWhenEmbedding(t *testing.T) {
	embedder := tripEmbedder()
	ranker := NewHybridRanker(embedder, RankerConfig{})

	corpus := append(tripCorpus(), domain.Message{ID: "4", Text: "   "})
	got, err := ranker.Rank(context.Background(), "trip to London", corpus, 5)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected all 4 candidates, got %d", len(got))
	}
	if got[3].MessageID != "4" {
		t.Fatalf("expected the blank message ranked last, got %s", got[3].MessageID)
	}
	for _, batch := range embedder.embeddedBatches {
		for _, text := range batch {
			if strings.TrimSpace(text) == "" {
				t.Fatalf("blank text must never reach the embedder, batch %v", batch)
			}
		}
	}
}

func TestRankLexicalOrdersByTokenOverlap(t *testing.T) {
	ranker := NewHybridRanker(&embedderFake{}, RankerConfig{})

	got := ranker.RankLexical("trip to London", tripCorpus(), 5)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].MessageID != "1" {
		t.Fatalf("expected message 1 first on lexical overlap, got %s", got[0].MessageID)
	}
	if got[0].Semantic != 0 {
		t.Fatalf("lexical-only ranking must not carry semantic scores, got %f", got[0].Semantic)
	}

	if got := ranker.RankLexical("trip to London", tripCorpus(), 0); len(got) != 0 {
		t.Fatalf("k=0 must yield no candidates, got %d", len(got))
	}
}

func TestCosineSimilarityHandlesDegenerateVectors(t *testing.T) {
	if got := cosineSimilarity(nil, nil); got != 0 {
		t.Fatalf("expected 0 for empty vectors, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 0}); got != 0 {
		t.Fatalf("expected 0 for zero vector, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("expected ~1 for identical vectors, got %f", got)
	}
}
