package router

import "strings"

// Default data-intent signals. Matching is substring-based on the lowercased
// message, so "dataset" is covered by "data".
var defaultDataKeywords = []string{
	"csv",
	"data",
	"analyze",
	"analysis",
	"chart",
	"plot",
	"filter",
	"average",
	"count",
	"column",
	"row",
	"record",
	"statistic",
	"prevalence",
	"pathogen",
	"study",
}

// Phrases that refer back to an earlier data answer. These route to the data
// pipeline so reformulation can resolve the reference.
var defaultContextPhrases = []string{
	"that data",
	"the same",
	"compared to",
	"previous",
	"earlier result",
}

// KeywordPolicy routes by scanning the message for data-intent keywords and
// context-dependency phrases.
type KeywordPolicy struct {
	keywords []string
	phrases  []string
}

// NewKeywordPolicy creates a keyword policy. Nil slices select the default
// rule sets.
func NewKeywordPolicy(keywords, phrases []string) *KeywordPolicy {
	if keywords == nil {
		keywords = defaultDataKeywords
	}
	if phrases == nil {
		phrases = defaultContextPhrases
	}
	return &KeywordPolicy{
		keywords: lowered(keywords),
		phrases:  lowered(phrases),
	}
}

func (p *KeywordPolicy) Name() string {
	return PolicyKeyword
}

func (p *KeywordPolicy) Route(message string) Route {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Route{Decision: DecisionGeneralChat, Query: ""}
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return Route{Decision: DecisionDataQuery, Query: trimmed}
		}
	}
	for _, phrase := range p.phrases {
		if strings.Contains(lower, phrase) {
			return Route{Decision: DecisionDataQuery, Query: trimmed}
		}
	}

	return Route{Decision: DecisionGeneralChat, Query: trimmed}
}

func lowered(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(item)
	}
	return out
}
