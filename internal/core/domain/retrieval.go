package domain

// NoRelevantInformationAnswer is returned when the ranker produced no
// candidates to ground an answer on.
const NoRelevantInformationAnswer = "I could not find relevant information to answer your question."

// ScoredCandidate references a corpus message together with its per-query
// relevance scores. Combined = semanticWeight*Semantic + lexicalWeight*Lexical
// after the semantic score is normalized to [0, 1].
type ScoredCandidate struct {
	MessageID string  `json:"message_id"`
	UserName  string  `json:"user_name"`
	Timestamp string  `json:"timestamp"`
	Text      string  `json:"text"`
	Semantic  float64 `json:"semantic_score"`
	Lexical   float64 `json:"lexical_score"`
	Combined  float64 `json:"combined_score"`
}

// AnswerResult is the final output of the QA pipeline. SourceIDs is always a
// subset of the candidate ids passed to synthesis. Degraded is set when any
// stage served stale data or fell back to lexical-only ranking.
type AnswerResult struct {
	Answer    string   `json:"answer"`
	SourceIDs []string `json:"sources"`
	Degraded  bool     `json:"degraded"`
}
