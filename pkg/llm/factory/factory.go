package factory

import (
	"ai-datachat-be/pkg/llm"
	"ai-datachat-be/pkg/llm/huggingface"
	"ai-datachat-be/pkg/llm/ollama"
	"ai-datachat-be/pkg/llm/openai"
	"fmt"
)

func NewLLMProvider(providerType, modelName, ollamaBaseURL, openaiBaseURL, openaiAPIKey, huggingfaceAPIKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(openaiAPIKey, openaiBaseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(huggingfaceAPIKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
