// Package mail defines the boundary to the external mail source: the
// interface the pipeline consumes, the authentication-required signal, and
// the pure helpers for message bodies (part-tree search, truncation).
//
// The concrete client lives in internal/platform/gmail; the pipeline
// depends only on the Source interface. OAuth token acquisition and refresh
// are owned by an external flow that writes the credential store.
package mail

import (
	"context"
	"fmt"

	"startask/internal/domain"
)

// Source fetches starred items and applies the two "handled" side effects.
type Source interface {
	// FetchStarred returns up to maxResults currently starred items, in
	// source order. Returns an *AuthRequiredError when the stored
	// credentials are missing or expired; callers must surface its reauth
	// URL to the operator instead of logging a generic error.
	FetchStarred(ctx context.Context, maxResults int) ([]domain.Item, error)

	// MarkHandled applies the "Processed" label to the item and removes
	// the star. The committer treats this as best-effort: the created
	// tracker task is the durable fact of record, the source item's
	// visual state is not.
	MarkHandled(ctx context.Context, itemID string) error
}

// AuthRequiredError signals that the mail source needs the operator to
// re-authenticate. It aborts the fetch step with a specific remediation
// rather than being recorded as a pipeline error.
type AuthRequiredError struct {
	ReauthURL string
}

// Error implements the error interface.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("mail source authentication required; visit %s to re-authenticate", e.ReauthURL)
}
