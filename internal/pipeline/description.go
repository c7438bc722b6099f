package pipeline

import "strings"

// ComposeDescription builds the tracker task description for an item. The
// format is a fixed contract shared with saved test fixtures: lines joined
// by newline, in order: sender, subject, blank, notes (possibly empty),
// blank, source link.
func ComposeDescription(sender, subject, notes, sourceLink string) string {
	lines := []string{
		"From: " + sender,
		"Subject: " + subject,
		"",
		notes,
		"",
		"Original email: " + sourceLink,
	}
	return strings.Join(lines, "\n")
}
