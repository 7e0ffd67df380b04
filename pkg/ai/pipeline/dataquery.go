package pipeline

import (
	"context"
	"fmt"
	"log"

	"ai-datachat-be/pkg/query"
)

// DataAgent answers one question against the dataset. Implementations always
// return a textual answer, folding their own failures into it.
type DataAgent interface {
	Ask(ctx context.Context, question string) string
}

// DataQueryPipeline is the canonical translate-then-execute agent: the
// question becomes one SQL statement, the statement runs against an isolated
// dataset copy, and whatever comes back is the answer.
type DataQueryPipeline struct {
	translator query.Translator
	executor   *query.Executor
	logger     *log.Logger
}

var _ DataAgent = &DataQueryPipeline{}

// NewDataQueryPipeline creates a new data query pipeline
func NewDataQueryPipeline(translator query.Translator, executor *query.Executor, logger *log.Logger) *DataQueryPipeline {
	return &DataQueryPipeline{
		translator: translator,
		executor:   executor,
		logger:     logger,
	}
}

// Ask runs the full translate-execute sequence for one question.
func (p *DataQueryPipeline) Ask(ctx context.Context, question string) string {
	p.logger.Printf("[DATAQUERY] Question: %s", question)

	statement, err := p.translator.Translate(ctx, question)
	if err != nil {
		p.logger.Printf("[DATAQUERY] Translation failed: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}

	return p.executor.Execute(ctx, statement)
}
