// Package orchestrator coordinates task runs: it classifies requests,
// delegates sub-tasks to specialists through the tool registry, records
// the transcript, and streams progress events.
package orchestrator

import "strings"

// Action is the category of handling chosen for a request.
type Action string

const (
	// ActionSearch routes the request to a research specialist.
	ActionSearch Action = "search"
	// ActionCode routes the request to a code generation specialist.
	ActionCode Action = "code"
	// ActionDirect handles the request without delegation.
	ActionDirect Action = "direct"
)

// Classifier decides how a request should be handled.
// The keyword implementation below is deliberately replaceable: a real
// planner can be substituted without touching the state machine.
type Classifier interface {
	Classify(prompt string) Action
}

// ActionKeywords is the single source of truth for action classification
// keywords. Matching is case-insensitive substring containment; search
// takes precedence over code.
type ActionKeywords struct {
	// Search keywords indicate research and information gathering.
	Search []string

	// Code keywords indicate implementation work.
	Code []string

	// Direct is the default action and has no keywords.
}

// DefaultActionKeywords returns the authoritative keyword mappings.
var DefaultActionKeywords = ActionKeywords{
	Search: []string{
		"search",
		"find",
		"look up",
		"lookup",
		"research",
	},
	Code: []string{
		"code",
		"develop",
		"implement",
		"script",
		"program",
		"write a function",
	},
}

// KeywordClassifier classifies requests by keyword presence.
type KeywordClassifier struct {
	keywords ActionKeywords
}

// NewKeywordClassifier creates a classifier with the default keywords.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: DefaultActionKeywords}
}

// Classify returns the action category for a prompt.
// Search keywords are checked first, then code keywords; a prompt
// matching neither is handled directly. First match wins.
func (c *KeywordClassifier) Classify(prompt string) Action {
	lower := strings.ToLower(prompt)

	for _, kw := range c.keywords.Search {
		if strings.Contains(lower, kw) {
			return ActionSearch
		}
	}
	for _, kw := range c.keywords.Code {
		if strings.Contains(lower, kw) {
			return ActionCode
		}
	}
	return ActionDirect
}
