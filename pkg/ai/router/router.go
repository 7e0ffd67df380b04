package router

import (
	"fmt"
	"strings"
)

// Decision is the closed set of routing outcomes.
type Decision string

const (
	DecisionGeneralChat Decision = "GENERAL_CHAT" // Conversational turn, answered by the chat model
	DecisionDataQuery   Decision = "DATA_QUERY"   // Data question, answered by the query pipeline
)

// Route is the outcome of classifying one user message.
type Route struct {
	Decision Decision
	Query    string // Message text with any routing marker removed
}

// Policy classifies incoming messages. Implementations never fail: empty or
// malformed input routes to general chat.
type Policy interface {
	Name() string
	Route(message string) Route
}

// Policy selector values recognized in configuration. Exactly one policy is
// active per process.
const (
	PolicyKeyword = "keyword"
	PolicyPrefix  = "prefix"
)

// NewPolicy builds the configured routing policy with its default rule sets.
func NewPolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyKeyword, "":
		return NewKeywordPolicy(nil, nil), nil
	case PolicyPrefix:
		return NewPrefixPolicy(""), nil
	default:
		return nil, fmt.Errorf("unsupported routing policy: %s", name)
	}
}
