package errorhandler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/pkg/logger"
	"github.com/mediarent/storefront-api/internal/pkg/response"
)

// HandleError logs an unexpected failure and answers with a generic error body.
// The error itself never reaches the client.
func HandleError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", operation).
		Err(err).
		Msg("Request error")

	response.InternalError(w)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	log.Warn().
		Str("request_id", logger.RequestID(ctx)).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}

// LogLoadFailure records a failed read from an external source. Callers treat the
// result as empty and keep serving.
func LogLoadFailure(ctx context.Context, source string, err error) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("source", source).
		Err(err).
		Msg("Load failed, treating result as empty")
}
