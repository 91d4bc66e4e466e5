package responder

import (
	"fmt"
	"strings"

	"MindTalk/internal/config"
	"MindTalk/internal/session"
)

// Branch identifies which rule of the decision list produced a reply.
type Branch string

const (
	BranchAttachments Branch = "attachments"
	BranchCrisis      Branch = "crisis"
	BranchFallback    Branch = "fallback"
	// Topic branches carry the rule's topic name, e.g. "stress".
)

// Reply is a selected canned response together with the branch that fired,
// so callers and tests can reason about the decision rather than the prose.
type Reply struct {
	Branch Branch
	Text   string
}

// Selector picks one canned reply per user message. Selection is an ordered
// decision list, first match wins, and is fully deterministic: identical
// inputs always yield the identical reply.
type Selector struct {
	lex config.Lexicon
}

// NewSelector builds a selector over the given lexicon.
func NewSelector(lex config.Lexicon) *Selector {
	return &Selector{lex: lex}
}

// Select applies the decision list:
//  1. attachments present, regardless of anything else
//  2. crisis flag
//  3. topic rules in lexicon order
//  4. fallback
func (s *Selector) Select(text string, isCrisis bool, attachments []session.FileRef) Reply {
	if len(attachments) > 0 {
		names := make([]string, len(attachments))
		for i, f := range attachments {
			names[i] = f.Name
		}
		return Reply{
			Branch: BranchAttachments,
			Text: fmt.Sprintf("I can see you've shared %d file(s) with me. While I "+
				"can't process the actual content of files yet, I acknowledge that "+
				"you've shared: %s. Please describe what you'd like to discuss about "+
				"these files, and I'll do my best to help you.",
				len(attachments), strings.Join(names, ", ")),
		}
	}

	if isCrisis {
		return Reply{Branch: BranchCrisis, Text: s.lex.CrisisReply}
	}

	lowered := strings.ToLower(text)
	for _, rule := range s.lex.Topics {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return Reply{Branch: Branch(rule.Topic), Text: rule.Reply}
			}
		}
	}

	return Reply{Branch: BranchFallback, Text: s.lex.FallbackReply}
}
