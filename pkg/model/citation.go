package model

import "strings"

// Citation is a normalized knowledge source reference attached to a relay
// answer.
type Citation struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// DisplayLabel picks the most useful single line for showing the citation
// to a user: a link-like source first, then the title, then whatever source
// string remains.
func (x *Citation) DisplayLabel() string {
	source := strings.TrimSpace(x.Source)
	title := strings.TrimSpace(x.Title)

	lower := strings.ToLower(source)
	if source != "" && (strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasSuffix(lower, ".pdf")) {
		return source
	}
	if title != "" {
		return title
	}
	return source
}
