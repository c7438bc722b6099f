package taxonomy

import (
	"errors"
	"fmt"
)

// Common normalizer construction errors
var (
	ErrDefaultNotInRegistry = errors.New("configured default label not in registry")
	ErrDefaultWrongCategory = errors.New("configured default label has wrong category")
)

// Normalizer repairs candidate label sets so they satisfy the taxonomy's
// cardinality rules. Normalization is total: it never fails, and its output
// always contains exactly one Duration id and at least one Context id, all
// registry-valid, with no duplicates.
//
// The downstream tracker requires exactly-one-duration semantics for its
// scheduling views; repairing silently instead of rejecting keeps the
// pipeline flowing even when extraction is imperfect.
type Normalizer struct {
	registry        *Registry
	defaultDuration string
	defaultContext  string
}

// NewNormalizer creates a Normalizer with the given registry and default
// ids. The defaults must be registry members of the matching category.
func NewNormalizer(registry *Registry, defaultDuration, defaultContext string) (*Normalizer, error) {
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}

	if cat, ok := registry.CategoryOf(defaultDuration); !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefaultNotInRegistry, defaultDuration)
	} else if cat != CategoryDuration {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrDefaultWrongCategory, defaultDuration, cat, CategoryDuration)
	}

	if cat, ok := registry.CategoryOf(defaultContext); !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefaultNotInRegistry, defaultContext)
	} else if cat != CategoryContext {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrDefaultWrongCategory, defaultContext, cat, CategoryContext)
	}

	return &Normalizer{
		registry:        registry,
		defaultDuration: defaultDuration,
		defaultContext:  defaultContext,
	}, nil
}

// DefaultPair returns the configured safe-default label pair (duration,
// context). The extraction gateway substitutes it when a result carries no
// usable labels at all.
func (n *Normalizer) DefaultPair() (string, string) {
	return n.defaultDuration, n.defaultContext
}

// Registry returns the registry the normalizer validates against.
func (n *Normalizer) Registry() *Registry {
	return n.registry
}

// Normalize validates and repairs the candidate ids:
//
//  1. ids not in the registry are dropped;
//  2. duplicates are removed, keeping the first occurrence;
//  3. of the surviving Duration ids only the first (by original order) is
//     kept; if none survive, the default Duration id is appended;
//  4. if no Context id survives, the default Context id is appended.
//
// The input slice is never modified.
func (n *Normalizer) Normalize(candidateIDs []string) []string {
	result := make([]string, 0, len(candidateIDs)+2)
	seen := make(map[string]struct{}, len(candidateIDs))
	durationSeen := false
	contextSeen := false

	for _, id := range candidateIDs {
		cat, ok := n.registry.CategoryOf(id)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if cat == CategoryDuration {
			if durationSeen {
				continue
			}
			durationSeen = true
		}
		if cat == CategoryContext {
			contextSeen = true
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	if !durationSeen {
		result = append(result, n.defaultDuration)
	}
	if !contextSeen {
		result = append(result, n.defaultContext)
	}

	return result
}
