package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-datachat-be/internal/config"
	"ai-datachat-be/pkg/ai/pipeline"
	"ai-datachat-be/pkg/dataset"
	"ai-datachat-be/pkg/llm/factory"
	"ai-datachat-be/pkg/query"

	"github.com/fatih/color"
)

// Benchmark questions used to sanity-check the data agent against the
// point dataset. Run with the same .env the server uses.
var questions = []string{
	"How many records are there?",
	"How many pathogens are there?",
	"Please name each of the pathogens available in the dataset",
	"In which location are there more studies about Rotavirus?",
	"What syndromes are included in the data?",
}

const outputPath = "outputs/qa_eval.tsv"

type evalResult struct {
	question string
	answer   string
	elapsed  time.Duration
}

func main() {
	cfg := config.Load()

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIBaseURL,
		cfg.Ai.OpenAIAPIKey,
		cfg.Ai.HuggingFaceAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}

	ds, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load dataset %s: %v", cfg.Dataset.Path, err)
	}

	traceLogger := log.New(os.Stdout, "", log.LstdFlags)
	translator := query.NewSQLTranslator(llmProvider, ds.Describe(), traceLogger)
	executor := query.NewExecutor(ds, time.Duration(cfg.Dataset.QueryTimeoutSeconds)*time.Second, traceLogger)
	agent := pipeline.NewDataQueryPipeline(translator, executor, traceLogger)

	color.Cyan("🚀 Benchmarking %d questions against %s (%d rows, model %s)\n",
		len(questions), cfg.Dataset.Path, ds.RowCount(), cfg.Ai.LLMModel)

	ctx := context.Background()
	results := make([]evalResult, 0, len(questions))
	totalStart := time.Now()

	for i, question := range questions {
		color.Yellow("\n[%d/%d] %s", i+1, len(questions), question)

		start := time.Now()
		answer := agent.Ask(ctx, question)
		elapsed := time.Since(start)

		if strings.HasPrefix(answer, "Error:") || strings.HasPrefix(answer, "Execution error:") {
			color.Red("Answer: %s", answer)
		} else {
			color.Green("Answer: %s", answer)
		}
		fmt.Printf("Time: %.4f seconds\n", elapsed.Seconds())

		results = append(results, evalResult{question: question, answer: answer, elapsed: elapsed})
	}

	total := time.Since(totalStart)
	fmt.Printf("\nTotal execution time: %.4f seconds\n", total.Seconds())
	fmt.Printf("Average time per question: %.4f seconds\n", total.Seconds()/float64(len(questions)))

	if err := saveResults(results); err != nil {
		log.Fatalf("[FATAL] Failed to save results: %v", err)
	}
	color.Cyan("Results saved to %s", outputPath)
}

func saveResults(results []evalResult) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("question\tllm_response\telapsed_seconds\n"); err != nil {
		return err
	}
	for _, r := range results {
		line := fmt.Sprintf("%s\t%s\t%.4f\n", flatten(r.question), flatten(r.answer), r.elapsed.Seconds())
		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// flatten keeps one result per TSV line.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
