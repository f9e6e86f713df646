package drive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// wrapError converts a Google API error into the domain error taxonomy so
// the publication coordinator can classify it.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			err = fmt.Errorf("%s: %w", gerr.Message, domain.ErrRateLimited)
		case http.StatusUnauthorized:
			err = fmt.Errorf("%s: %w", gerr.Message, domain.ErrAuthInvalid)
		}
	}

	return &domain.ExternalServiceError{Service: "drive", Op: op, Err: err}
}
