package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
	"github.com/kirillkom/messages-qa-service/internal/core/ports"
)

const defaultMaxContextChars = 12000

const synthesizerSystemPrompt = `You are an assistant that answers questions strictly from the provided member messages.
Use only the context below; never invent facts or message ids.
Respond with a strict JSON object with exactly two keys:
"answer" (string) and "source_ids" (array of message id strings you actually used).
If the context does not contain the answer, set "answer" to "` +
	domain.NoRelevantInformationAnswer + `" and "source_ids" to [].
No markdown, no extra keys.`

// SynthesizerConfig bounds the grounding context passed to the model.
type SynthesizerConfig struct {
	MaxContextChars int
}

// AnswerSynthesizer builds the grounding prompt from ranked candidates, runs
// one generation request and validates the structured payload. Transient
// transport failures are retried inside the generator adapter; a malformed
// payload gets exactly one corrective re-prompt before the synthesizer gives
// up with ErrSynthesisFailed.
type AnswerSynthesizer struct {
	generator ports.AnswerGenerator
	cfg       SynthesizerConfig
}

func NewAnswerSynthesizer(generator ports.AnswerGenerator, cfg SynthesizerConfig) *AnswerSynthesizer {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaultMaxContextChars
	}
	return &AnswerSynthesizer{generator: generator, cfg: cfg}
}

type llmPayload struct {
	Answer    *string  `json:"answer"`
	SourceIDs []string `json:"source_ids"`
}

func (s *AnswerSynthesizer) Synthesize(
	ctx context.Context,
	question string,
	candidates []domain.ScoredCandidate,
) (*domain.AnswerResult, error) {
	if len(candidates) == 0 {
		return &domain.AnswerResult{
			Answer:    domain.NoRelevantInformationAnswer,
			SourceIDs: []string{},
		}, nil
	}

	prompt := buildGroundingPrompt(question, candidates, s.cfg.MaxContextChars)

	raw, err := s.generator.GenerateJSON(ctx, synthesizerSystemPrompt, prompt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSynthesisFailed, "generate answer", err)
	}

	payload, parseErr := parseAnswerPayload(raw)
	if parseErr != nil {
		// One corrective re-prompt for a malformed structure, then escalate.
		raw, err = s.generator.GenerateJSON(ctx, synthesizerSystemPrompt, prompt+"\n\n"+reformatInstruction)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSynthesisFailed, "generate answer (reprompt)", err)
		}
		payload, parseErr = parseAnswerPayload(raw)
		if parseErr != nil {
			return nil, domain.WrapError(domain.ErrSynthesisFailed, "parse answer payload", parseErr)
		}
	}

	return &domain.AnswerResult{
		Answer:    strings.TrimSpace(*payload.Answer),
		SourceIDs: filterToCandidates(payload.SourceIDs, candidates),
	}, nil
}

const reformatInstruction = `Your previous reply was not the required JSON object. ` +
	`Reply again with only {"answer": "...", "source_ids": ["..."]}.`

func parseAnswerPayload(raw string) (*llmPayload, error) {
	cleaned := extractJSONObject(stripMarkdownFences(raw))

	var payload llmPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal llm payload: %w", err)
	}
	if payload.Answer == nil {
		return nil, fmt.Errorf("llm payload missing answer field")
	}
	if payload.SourceIDs == nil {
		payload.SourceIDs = []string{}
	}
	return &payload, nil
}

// filterToCandidates drops every id the model cited that was not among the
// candidates it was shown. Invented ids are discarded silently; an answer
// with no surviving citations is still returned.
func filterToCandidates(ids []string, candidates []domain.ScoredCandidate) []string {
	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.MessageID] = struct{}{}
	}

	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// buildGroundingPrompt concatenates candidate messages in rank order, keeping
// the total under maxChars by dropping the lowest-ranked candidates first.
func buildGroundingPrompt(question string, candidates []domain.ScoredCandidate, maxChars int) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nMessages:\n")

	for _, c := range candidates {
		block := formatCandidateBlock(c)
		if b.Len()+len(block) > maxChars {
			break
		}
		b.WriteString(block)
	}
	return b.String()
}

func formatCandidateBlock(c domain.ScoredCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", c.MessageID)
	if c.UserName != "" {
		fmt.Fprintf(&b, " From: %s", c.UserName)
	}
	if c.Timestamp != "" {
		fmt.Fprintf(&b, " Time: %s", c.Timestamp)
	}
	b.WriteString("\n")
	b.WriteString(c.Text)
	b.WriteString("\n\n")
	return b.String()
}

func stripMarkdownFences(raw string) string {
	out := strings.TrimSpace(raw)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
