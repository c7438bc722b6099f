package extraction

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("extraction").Parse(promptText))

// BuildPrompt renders the shared extraction prompt for one input. Both
// provider clients send the identical prompt so their outputs stay
// interchangeable.
func BuildPrompt(input Input) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("failed to render extraction prompt: %w", err)
	}
	return buf.String(), nil
}
