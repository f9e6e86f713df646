package notion

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/studyflow-cli/internal/core/domain"
)

// wrapError converts a Notion API error into the domain error taxonomy so
// the publication coordinator can classify it. Rate limits map to
// domain.ErrRateLimited (retried with backoff), auth failures to
// domain.ErrAuthInvalid (never retried).
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			err = fmt.Errorf("%s: %w", apiErr.Message, domain.ErrRateLimited)
		case http.StatusUnauthorized:
			err = fmt.Errorf("%s: %w", apiErr.Message, domain.ErrAuthInvalid)
		}
	}

	return &domain.ExternalServiceError{Service: "notion", Op: op, Err: err}
}
