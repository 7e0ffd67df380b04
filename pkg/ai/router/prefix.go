package router

import "strings"

// DefaultPrefix is the reserved marker for explicit data questions.
const DefaultPrefix = "csv:"

// PrefixPolicy routes to the data pipeline only when the message starts with
// the reserved marker. The marker is stripped from the forwarded query.
type PrefixPolicy struct {
	prefix string
}

// NewPrefixPolicy creates a prefix policy. An empty prefix selects
// DefaultPrefix.
func NewPrefixPolicy(prefix string) *PrefixPolicy {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &PrefixPolicy{prefix: strings.ToLower(prefix)}
}

func (p *PrefixPolicy) Name() string {
	return PolicyPrefix
}

func (p *PrefixPolicy) Route(message string) Route {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Route{Decision: DecisionGeneralChat, Query: ""}
	}

	if strings.HasPrefix(strings.ToLower(trimmed), p.prefix) {
		query := strings.TrimSpace(trimmed[len(p.prefix):])
		if query == "" {
			// A bare marker carries no question to answer.
			return Route{Decision: DecisionGeneralChat, Query: ""}
		}
		return Route{Decision: DecisionDataQuery, Query: query}
	}

	return Route{Decision: DecisionGeneralChat, Query: trimmed}
}
