// Package taxonomy defines the closed registry of approved task labels and
// the normalizer that repairs candidate label sets against it.
//
// The registry is fixed at process start. Labels are grouped into
// categories with cardinality rules enforced by the normalizer: every
// committed task carries exactly one Duration label and at least one
// Context label.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups labels by the scheduling dimension they describe.
type Category string

// Possible label categories
const (
	CategoryDuration    Category = "duration"
	CategoryContext     Category = "context"
	CategoryTheme       Category = "theme"
	CategoryHorizon     Category = "horizon"
	CategoryPerformance Category = "performance"
)

// Common registry errors
var (
	ErrUnknownLabel   = errors.New("label not in registry")
	ErrDuplicateLabel = errors.New("duplicate label id in registry")
	ErrEmptyRegistry  = errors.New("registry cannot be empty")
)

// Label is one immutable registry entry. ID is the opaque stable identifier
// used everywhere inside the pipeline; DisplayName and Emoji are only
// joined at the tracker boundary.
type Label struct {
	ID          string
	DisplayName string
	Emoji       string
	Category    Category
	Description string
}

// Registry is the closed set of approved labels. It is built once at
// startup and never mutated afterwards.
type Registry struct {
	byID  map[string]Label
	order []string
}

// NewRegistry builds a registry from the given labels.
// Returns an error on duplicate ids or an empty label set.
func NewRegistry(labels []Label) (*Registry, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyRegistry
	}

	byID := make(map[string]Label, len(labels))
	order := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, exists := byID[l.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, l.ID)
		}
		byID[l.ID] = l
		order = append(order, l.ID)
	}

	return &Registry{byID: byID, order: order}, nil
}

// Contains reports whether the given id is a member of the registry.
func (r *Registry) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Lookup returns the label for the given id.
// Returns ErrUnknownLabel if the id is not in the registry.
func (r *Registry) Lookup(id string) (Label, error) {
	l, ok := r.byID[id]
	if !ok {
		return Label{}, fmt.Errorf("%w: %s", ErrUnknownLabel, id)
	}
	return l, nil
}

// CategoryOf returns the category of the given id and whether the id is a
// registry member.
func (r *Registry) CategoryOf(id string) (Category, bool) {
	l, ok := r.byID[id]
	if !ok {
		return "", false
	}
	return l.Category, true
}

// DisplayString returns the "{displayName} {emoji}" form the tracker
// expects for the given id.
// Returns ErrUnknownLabel if the id is not in the registry.
func (r *Registry) DisplayString(id string) (string, error) {
	l, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLabel, id)
	}
	return l.DisplayName + " " + l.Emoji, nil
}

// IDs returns all registry ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// PromptCatalog renders the registry as an id-per-line listing suitable for
// embedding in the extraction prompt, so the extractor only proposes
// approved ids.
func (r *Registry) PromptCatalog() string {
	var b strings.Builder
	for _, id := range r.order {
		l := r.byID[id]
		fmt.Fprintf(&b, "- %s (%s): %s\n", l.ID, l.Category, l.Description)
	}
	return b.String()
}
