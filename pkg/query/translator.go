package query

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/llm"
)

// Translator turns a natural-language question into a single SQL statement
// over the fixed dataset table.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

// SQLTranslator prompts the model with the dataset structure and expects raw
// SQL back. Markdown fences in the reply are tolerated and stripped.
type SQLTranslator struct {
	llmProvider llm.LLMProvider
	metadata    string
	logger      *log.Logger
}

// NewSQLTranslator creates a translator bound to one dataset description.
// The metadata block is rendered once; the dataset never changes at runtime.
func NewSQLTranslator(llmProvider llm.LLMProvider, desc dataset.Description, logger *log.Logger) *SQLTranslator {
	return &SQLTranslator{
		llmProvider: llmProvider,
		metadata:    desc.Render(),
		logger:      logger,
	}
}

const translationPromptTemplate = `You are a data analyst working with a single SQL table named 'df'.

Table information:
%s

Write one SQLite SELECT statement that answers this question: %s
Use 'df' as the table name. Return only the SQL, no explanations or markdown.`

// Translate asks the model for a statement answering the question.
func (t *SQLTranslator) Translate(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(translationPromptTemplate, t.metadata, question)

	raw, err := t.llmProvider.Generate(ctx, prompt)
	if err != nil {
		t.logger.Printf("[TRANSLATOR] Generation failed: %v", err)
		return "", err
	}

	statement := StripFences(raw)
	if statement == "" {
		return "", fmt.Errorf("empty statement from model")
	}

	t.logger.Printf("[TRANSLATOR] Statement: %s", truncateLog(statement, 120))
	return statement, nil
}

// StripFences removes markdown code fences and a leading language tag from a
// model reply, returning the bare statement.
func StripFences(raw string) string {
	code := strings.TrimSpace(raw)

	if strings.HasPrefix(code, "```") {
		if idx := strings.Index(code, "\n"); idx != -1 {
			code = code[idx+1:]
		} else {
			code = strings.TrimPrefix(code, "```")
		}
	}
	if strings.HasSuffix(code, "```") {
		code = code[:len(code)-3]
	}
	code = strings.TrimSpace(code)

	// Some models emit the language tag on its own line without fences.
	if idx := strings.Index(code, "\n"); idx != -1 {
		first := strings.TrimSpace(code[:idx])
		if strings.EqualFold(first, "sql") || strings.EqualFold(first, "sqlite") {
			code = strings.TrimSpace(code[idx+1:])
		}
	}

	return code
}

// truncateLog truncates string for logging
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
