package crisis

import "strings"

// Classifier screens a message for crisis-indicator language. It is a
// deliberately coarse keyword screen, not semantic understanding: a lowered
// substring match against a configured set of indicator phrases.
type Classifier struct {
	keywords []string
}

// NewClassifier builds a classifier over the given indicator phrases.
// Keywords are normalized to lower case once at construction.
func NewClassifier(keywords []string) *Classifier {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Classifier{keywords: normalized}
}

// Classify reports whether the text contains any crisis indicator phrase.
// The check is case-insensitive and side-effect-free. Empty or
// whitespace-only text never matches.
func (c *Classifier) Classify(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, kw := range c.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
