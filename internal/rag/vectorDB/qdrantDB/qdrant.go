package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
	"github.com/jurisai/jurisai/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

var connHost = "localhost"
var connPort = 6334

type ClientHolder struct {
	QObj *qdrant.Client
}

// Configure sets the connection target before the first GetQdrantClient call.
func Configure(host string, port int) {
	if host != "" {
		connHost = host
	}
	if port != 0 {
		connPort = port
	}
}

// GetQdrantClient returns the shared client, or nil when Qdrant is
// unreachable. Callers treat nil as "semantic features disabled".
func GetQdrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			initCacheCollection(ctx, qdrantInstance)
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     connHost,
		Port:     connPort,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate qdrant client", "error", err)
		return nil
	}

	err = createCollection(context.Background(), client, config.ChunkCollectionName)
	if err != nil {
		logger.Error("could not create collection", "collectionName", config.ChunkCollectionName, "error", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) Search(ctx context.Context, vectorFloat []float32, limit uint64) ([]vectorDB.Match, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.ChunkCollectionName,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	matches := make([]vectorDB.Match, 0, len(result))
	for _, hit := range result {
		matches = append(matches, vectorDB.Match{
			Content:      hit.Payload["content"].GetStringValue(),
			DocumentId:   hit.Payload["source_doc_id"].GetIntegerValue(),
			Title:        hit.Payload["doc_name"].GetStringValue(),
			Jurisdiction: hit.Payload["jurisdiction"].GetStringValue(),
			PageNum:      int(hit.Payload["page_num"].GetIntegerValue()),
			ChunkOrder:   int(hit.Payload["chunk_order"].GetIntegerValue()),
			Score:        hit.Score,
		})
	}

	loggr.Debug("vector search done", "matches", len(matches))
	return matches, nil
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, collectionName string) error {
	return createCollection(ctx, db.QObj, collectionName)
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, collectionName string, chunks []docmodel.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))

	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Chunk,
				"page_num":      chunk.PageNum,
				"source_doc_id": chunk.Source.DocumentId,
				"doc_name":      chunk.Source.Title,
				"jurisdiction":  chunk.Source.Jurisdiction,
				"chunk_order":   chunk.ChunkPageOrder,
				"chunk_id":      chunk.ChunkId,
				"ingested_at":   chunk.Source.IngestedAt.Unix(),
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})

	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return nil
}

// DeleteByDocument removes every chunk belonging to a document, used when a
// document is deleted or re-ingested.
func (db *ClientHolder) DeleteByDocument(ctx context.Context, collectionName string, documentId int64) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchInt("source_doc_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
