package dify

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// classifyResponse maps an upload rejection to a sentinel error. The
// remote side reports most misconfigurations only through message
// text, so classification is substring matching over the body.
func classifyResponse(status int, body string) error {
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}

	lower := strings.ToLower(body)
	switch {
	case status == http.StatusUnauthorized || strings.Contains(lower, "unauthorized"):
		return fmt.Errorf("%w: %s", domain.ErrUnauthorised, snippet(body))
	case strings.Contains(lower, "doc_form") || strings.Contains(lower, "segmentation"):
		return fmt.Errorf("%w: %s", domain.ErrSegmentationMismatch, snippet(body))
	case strings.Contains(lower, "indexing_technique"):
		return fmt.Errorf("%w: %s", domain.ErrIndexingTechniqueMismatch, snippet(body))
	case status == http.StatusNotFound || strings.Contains(lower, "not found") || strings.Contains(lower, "not_found"):
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, snippet(body))
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUploadRejected, status, snippet(body))
	}
}

// snippet bounds body text quoted into error messages.
func snippet(body string) string {
	const max = 200
	body = strings.TrimSpace(body)
	if len(body) > max {
		return body[:max]
	}
	return body
}
