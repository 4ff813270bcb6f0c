package openaillm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

// GetOpenAIClient returns the shared OpenAI provider, or nil when no API key
// is configured.
func GetOpenAIClient(modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		if apikey == "" {
			logger.Error("OpenAI API key missing")
			return
		}
		openaiClient = &llmClient{
			client:    openai.NewClient(option.WithAPIKey(apikey)),
			modelName: modelName,
		}
		logger.Info("OpenAI client created", "model", modelName)
	})

	if openaiClient == nil {
		return nil
	}
	return openaiClient
}

func (c *llmClient) Generate(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	var contextText strings.Builder

	if len(messageHistory) > 0 {
		contextText.WriteString("Conversation history (oldest first):\n")
		contextText.WriteString(strings.Join(messageHistory, "\n"))
		contextText.WriteString("\n\n")
	}
	contextText.WriteString("Document context:\n")
	contextText.WriteString(strings.Join(matches, "\n"))

	userPrompt := fmt.Sprintf("Context:\n%s\n\nUser Question: %s", contextText.String(), userQuery)
	return c.Complete(ctx, config.LegalAssistantContext, userPrompt)
}

func (c *llmClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		log.Error("OpenAI generation failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty openai response")
	}
	return resp.Choices[0].Message.Content, nil
}
