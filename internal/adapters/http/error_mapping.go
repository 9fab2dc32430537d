package httpadapter

import (
	"net/http"

	"github.com/kirillkom/messages-qa-service/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrSynthesisFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps vendor error bodies and internal detail out of
// responses; clients get the stable kind plus a short human-readable line.
func publicErrorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "question is missing or empty"
	case domain.IsKind(err, domain.ErrSourceUnavailable):
		return "the message source is currently unavailable"
	case domain.IsKind(err, domain.ErrEmbeddingUnavailable):
		return "relevance ranking is currently unavailable"
	case domain.IsKind(err, domain.ErrSynthesisFailed):
		return "could not generate an answer"
	default:
		return "internal error"
	}
}
