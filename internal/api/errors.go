package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/jackbridge/internal/alsa"
	"github.com/smazurov/jackbridge/internal/jack"
)

// mapError converts domain errors to problem responses.
func mapError(err error) error {
	var jackErr *jack.Error
	if errors.As(err, &jackErr) {
		switch jackErr.Code {
		case jack.ErrCodeInvalidName:
			return huma.Error400BadRequest(jackErr.Message, err)
		case jack.ErrCodeNoCapability:
			return huma.Error422UnprocessableEntity(jackErr.Message, err)
		case jack.ErrCodeGraphQueryFailed:
			return huma.Error503ServiceUnavailable(jackErr.Message, err)
		default:
			return huma.Error500InternalServerError(jackErr.Message, err)
		}
	}

	var alsaErr *alsa.Error
	if errors.As(err, &alsaErr) {
		return huma.Error500InternalServerError(alsaErr.Message, err)
	}

	return huma.Error500InternalServerError("internal server error", err)
}
