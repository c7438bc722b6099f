package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"startask/internal/domain"
)

// resultSchema is the wire shape extractors are prompted to emit.
type resultSchema struct {
	Task      string   `json:"task"`
	Labels    []string `json:"labels"`
	Notes     string   `json:"notes,omitempty"`
	DueString string   `json:"dueString,omitempty"`
}

// FirstJSONObject extracts the first well-formed JSON object embedded in
// free-form text. LLM output routinely wraps the payload in prose or
// markdown fencing; the contract is to tolerate that and take the first
// balanced object that parses.
func FirstJSONObject(text string) (string, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}

		end, ok := matchBrace(text, start)
		if !ok {
			continue
		}

		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no JSON object found in output", ErrUnparseable)
}

// matchBrace returns the index of the brace closing the object opened at
// start, tracking string literals and escapes so braces inside values do
// not confuse the depth count.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}

// ParseResult decodes extractor output into a domain.ExtractionResult,
// locating the first JSON object in the raw text first.
// Returns ErrUnparseable if no object is found, the object does not match
// the schema, or the task title is empty or blank.
func ParseResult(raw string) (*domain.ExtractionResult, error) {
	obj, err := FirstJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var schema resultSchema
	if err := json.Unmarshal([]byte(obj), &schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	title := strings.TrimSpace(schema.Task)
	if title == "" {
		return nil, fmt.Errorf("%w: empty task title", ErrUnparseable)
	}

	return &domain.ExtractionResult{
		TaskTitle: title,
		LabelIDs:  schema.Labels,
		Notes:     strings.TrimSpace(schema.Notes),
		DueHint:   strings.TrimSpace(schema.DueString),
	}, nil
}
