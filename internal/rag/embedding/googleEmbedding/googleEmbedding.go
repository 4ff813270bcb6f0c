package googleEmbedding

import (
	"context"
	"sync"
	"time"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/rag/embedding"
	"github.com/jurisai/jurisai/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
	}
	if c != nil {
		embeddingClient = &client{
			genAi: c,
			model: modelName,
		}
		logger.Info("Google Embedding client created", "model", modelName)
		go closeClient(ctx, embeddingClient)
	}
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
	embeddingClient.genAi = nil
	embeddingClient.model = ""
}

// GetGoogleEmbeddingClient returns the shared embedder, or nil when the
// client could not be created. A nil embedder disables semantic features.
func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	text := genai.Text(query)

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, text, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
	if err != nil {
		log.Error("Error getting embedding from Google", "error", err)
		return nil, err
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if !isHugeDataSet {
		res, err := c.doCall(ctx, getContent(chunks))
		if err != nil || res == nil {
			if doRetry(err, log) {
				time.Sleep(5 * time.Second)
				log.Debug("Retrying in 5 seconds")

				res, err = c.doCall(ctx, getContent(chunks))
			}
			if err != nil || res == nil {
				log.Error("Error getting embeddings from Google", "error", err)
				return nil, err
			}
		}
		var embeddingResults [][]float32
		for _, r := range res.Embeddings {
			embeddingResults = append(embeddingResults, r.Values)
		}

		return embeddingResults, nil
	}

	// Very large documents go through the async batch API.
	t1 := genai.EmbeddingsBatchJobSource{InlinedRequests: getInlinedBatchRequests(chunks)}
	batchJobName := utils.GetNewUUID()

	log = log.With("batchJobName", batchJobName, "chunks", len(chunks))
	conf := genai.CreateEmbeddingsBatchJobConfig{DisplayName: batchJobName}
	_, err := c.genAi.Batches.CreateEmbeddings(ctx, &c.model, &t1, &conf)
	if err != nil {
		log.Error("Error creating batch embedding job", "error", err)
		return nil, err
	}

	answer, err := c.pollForAnswer(ctx, batchJobName, log)
	if err != nil {
		return nil, err
	}
	resultVectors, downErrors := downloadAnswerFromClient(answer, log)
	if downErrors != nil {
		log.Error("Error downloading batch embedding results", "errors", downErrors)
	}

	return resultVectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
}
