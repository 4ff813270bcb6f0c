package qdrantDB

import (
	"context"
	"time"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/qdrant/go-client/qdrant"
)

func initCacheCollection(ctx context.Context, client *qdrant.Client) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	err := createCollection(ctx, client, config.SemanticCacheCollectionName)
	if err != nil {
		loggr.Error("Semantic cache collection creation failed", "error", err)
	}
}

// GetCachedAnswer checks whether a semantically close question was answered
// before. Scores below the cutoff are treated as misses.
func (db *ClientHolder) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.SemanticCacheCollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil || len(searchResult) == 0 {
		if err != nil {
			loggr.Error("Cache query failed", "error", err)
		}
		return "", false, err
	}

	if searchResult[0].Score < config.CacheSimilarityCutoff {
		return "", false, nil
	}

	loggr.Debug("semantic cache hit", "score", searchResult[0].Score)
	answer := searchResult[0].Payload["answer"].GetStringValue()
	return answer, true, nil
}

func (db *ClientHolder) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.SemanticCacheCollectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"answer":    answer,
					"timestamp": time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
	}
	return err
}
