package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

// GetGeminiClient returns the shared Gemini provider, or nil when the client
// could not be created.
func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Info("Gemini client created", "model", modelName)
		go closeClient(ctx, geminiClient)
	}
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

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(userPrompt),
		contentConfig,
	)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	if result == nil {
		return "", errors.New("empty gemini response")
	}
	return result.Text(), nil
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	llm.client = nil
	llm.modelName = ""
}
