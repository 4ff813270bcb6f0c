package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/rag/embedding"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
)

// Limits for the splitter. A generous overlap keeps clause boundaries intact
// across chunks, which matters for statute and contract text.
const maxChunkSize = 1000
const chunkOverlap = 150

func splitTextIntoChunks(text string, limit int, overlap int) []string {
	var chunks []string

	// Blank pages (scanned images, separators) yield nothing to embed.
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from best to worst for semantic meaning.
	separators := []string{"\n\n", "\n", ". ", " ", ""}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// Hard cut if no separator found (rare)
		return []string{text[:limit]}
	}

	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// Start the next chunk with the tail of the previous one.
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 && splitChar != "" {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// ExtractFullText pulls the complete text of a document for relational
// storage, independent of the chunking pipeline.
func ExtractFullText(path string) (string, error) {
	docType := getDocType(path)
	if docType == docmodel.ERR {
		return "", fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}

	pages, err := extractText(path, docType)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(page.Content)
	}
	return b.String(), nil
}

// SupportedFormat reports whether the file extension is one we can extract.
func SupportedFormat(path string) bool {
	return getDocType(path) != docmodel.ERR
}

func getDocType(docPath string) docmodel.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return docmodel.PDF
	case ".docx", ".rtf", ".odt":
		return docmodel.DOCX
	case ".txt":
		return docmodel.TXT
	default:
		return docmodel.ERR
	}
}

func extractText(path string, contentType docmodel.DocType) ([]rawPage, error) {
	switch contentType {
	case docmodel.PDF:
		return extractPDF(path)
	case docmodel.DOCX, docmodel.TXT:
		return extractdocxTxtRtf(path)
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

func PrepareChunks(pages []rawPage, source docmodel.ChunkSource, embeddingModel string) []docmodel.DocChunk {
	var allChunks []docmodel.DocChunk

	for _, page := range pages {
		stringChunks := splitTextIntoChunks(page.Content, maxChunkSize, chunkOverlap)

		for i, text := range stringChunks {
			allChunks = append(allChunks, docmodel.DocChunk{
				Source:         source,
				ChunkId:        utils.GetNewUUID(),
				Chunk:          text,
				PageNum:        page.Number,
				ChunkPageOrder: i,
				EmbeddingModel: embeddingModel,
			})
		}
	}

	return allChunks
}

func BatchIngest(ctx context.Context, chunks []docmodel.DocChunk, vectorDatabase vectorDB.DataProcessor, embedder embedding.Embedder) error {
	batchSize := 100

	// Drop empty chunks up front so chunks and vectors stay aligned for the
	// upsert.
	usable := make([]docmodel.DocChunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Chunk) != "" {
			usable = append(usable, c)
		}
	}
	chunks = usable

	isHugeDataSet := len(chunks) > 1000000

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		currentBatch := chunks[i:end]

		texts := make([]string, 0, len(currentBatch))
		for _, c := range currentBatch {
			texts = append(texts, c.Chunk)
		}

		logger.Debug("Starting embedding call", "batch", len(currentBatch), "texts", len(texts))
		vectors, err := embedder.BatchEmbedding(ctx, texts, isHugeDataSet)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}

		err = vectorDatabase.UpsertBatch(ctx, config.ChunkCollectionName, currentBatch, vectors)
		if err != nil {
			return fmt.Errorf("upserting to qdrant failed: %w", err)
		}
	}

	return nil
}
