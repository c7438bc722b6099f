package mail

import "unicode/utf8"

// MIME types relevant to body selection.
const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// Part is one node of a message's MIME tree. Leaves carry decoded content;
// multipart containers carry children.
type Part struct {
	MIMEType string
	Content  string
	Children []*Part
}

// FindTextBody searches the part tree depth-first for a displayable body.
// text/plain is preferred over text/html; any other leaf type is ignored.
// Within one preference level the first match in tree order wins. The
// search is a pure function over the tree: no hidden state, restartable.
func FindTextBody(root *Part) (string, bool) {
	if root == nil {
		return "", false
	}
	if body, ok := findByType(root, mimeTextPlain); ok {
		return body, true
	}
	return findByType(root, mimeTextHTML)
}

func findByType(p *Part, mimeType string) (string, bool) {
	if p.MIMEType == mimeType && p.Content != "" {
		return p.Content, true
	}
	for _, child := range p.Children {
		if body, ok := findByType(child, mimeType); ok {
			return body, true
		}
	}
	return "", false
}

// TruncateBody caps a body at max runes before it is handed to the
// extractor. Bodies can be arbitrarily large; prompts cannot.
func TruncateBody(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	return string(runes[:max])
}
