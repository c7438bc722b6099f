package domain

import "errors"

// Common validation errors for Item
var (
	ErrEmptyItemID = errors.New("item ID cannot be empty")
)

// Item is one external unit of work: a starred email surfaced by the mail
// source. The ID is the provider's opaque message ID, globally unique and
// stable across fetches; it is the dedup key for the whole pipeline.
//
// Items are immutable once fetched. The pipeline never writes back to the
// source except for the two boolean "handled" side effects (apply the
// processed label, remove the star), which are owned by the mail source.
type Item struct {
	ID         string `json:"id"`
	ThreadRef  string `json:"thread_ref"`
	Sender     string `json:"sender"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	SourceLink string `json:"source_link"`
}

// Validate checks if the Item has valid data.
// Only the ID is mandatory; senders, subjects, and bodies can legitimately
// be empty on real messages.
func (i *Item) Validate() error {
	if i.ID == "" {
		return ErrEmptyItemID
	}
	return nil
}
