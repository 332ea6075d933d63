package httpserver

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/ingest"
	apperrors "github.com/pscheid92/textpulse/internal/platform/errors"
)

const msgSentimentNotFound = "Sentiment not found"

// toAppError maps domain failures to structured errors. Anything unknown
// becomes an internal error carrying message.
func toAppError(err error, message string) *apperrors.Error {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return WrapHTTPError(httpErr)
	case errors.Is(err, domain.ErrEmptyInput):
		return apperrors.ValidationError("text must not be empty")
	case errors.Is(err, domain.ErrNoTextColumn):
		return apperrors.ValidationError("Could not find text column in CSV")
	case errors.Is(err, domain.ErrNULInText):
		return apperrors.ValidationError("text must not contain NUL characters")
	case errors.Is(err, ingest.ErrMalformedCSV):
		return apperrors.ValidationError("file is not a valid UTF-8 CSV file")
	case errors.Is(err, domain.ErrOutOfRange):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		return apperrors.NotFoundError(msgSentimentNotFound)
	case errors.Is(err, domain.ErrExportUnavailable):
		return apperrors.UnavailableError("export archive is not configured", err)
	default:
		return apperrors.InternalError(message, err)
	}
}
