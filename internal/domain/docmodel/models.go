package docmodel

import "time"

// Document is the relational record for an uploaded legal document.
type Document struct {
	Id              int64          `json:"id"`
	Title           string         `json:"title"`
	Content         string         `json:"content,omitempty"`
	DocumentType    string         `json:"document_type,omitempty"`
	Jurisdiction    string         `json:"jurisdiction,omitempty"`
	PublicationDate *time.Time     `json:"publication_date,omitempty"`
	FileFormat      string         `json:"file_format,omitempty"`
	WordCount       int            `json:"word_count,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	OwnerId         int64          `json:"owner_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Entity is a named entity extracted from a document by the analyzer agent.
type Entity struct {
	Id         int64  `json:"id"`
	DocumentId int64  `json:"document_id"`
	EntityType string `json:"entity_type"`
	EntityText string `json:"entity_text"`
	StartPos   int    `json:"start_position,omitempty"`
	EndPos     int    `json:"end_position,omitempty"`
}

// KeyTerm is a scored legal term extracted from a document.
type KeyTerm struct {
	Id             int64   `json:"id"`
	DocumentId     int64   `json:"document_id"`
	Term           string  `json:"term"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	Frequency      int     `json:"frequency,omitempty"`
}

// ChunkSource identifies the document a chunk came from in vector payloads.
type ChunkSource struct {
	DocumentId   int64     `json:"source_doc_id"`
	Title        string    `json:"doc_name"`
	IngestedAt   time.Time `json:"ingested_at"`
	ContentType  DocType   `json:"contentType"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
}

type DocChunk struct {
	Source         ChunkSource
	ChunkId        string `json:"chunk_id"`
	Chunk          string `json:"content"`
	PageNum        int    `json:"page_num"`
	ChunkPageOrder int    `json:"chunk_order"`
	EmbeddingModel string `json:"embeddingModel"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
