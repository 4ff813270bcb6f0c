package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
)

type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

const documentColumns = `id, COALESCE(title, ''), COALESCE(content, ''),
	COALESCE(document_type, ''), COALESCE(jurisdiction, ''), publication_date,
	doc_metadata, COALESCE(file_format, ''), COALESCE(word_count, 0),
	COALESCE(summary, ''), COALESCE(owner_id, 0), created_at, updated_at`

func scanDocument(row pgx.Row) (docmodel.Document, error) {
	var d docmodel.Document
	err := row.Scan(&d.Id, &d.Title, &d.Content, &d.DocumentType, &d.Jurisdiction,
		&d.PublicationDate, &d.Metadata, &d.FileFormat, &d.WordCount,
		&d.Summary, &d.OwnerId, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *DocumentStore) Create(ctx context.Context, d docmodel.Document) (docmodel.Document, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO legal_documents
		 (title, content, document_type, jurisdiction, publication_date, doc_metadata,
		  file_format, word_count, summary, owner_id)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), NULLIF($10, 0))
		 RETURNING `+documentColumns,
		d.Title, d.Content, d.DocumentType, d.Jurisdiction, d.PublicationDate,
		d.Metadata, d.FileFormat, d.WordCount, d.Summary, d.OwnerId)

	created, err := scanDocument(row)
	if err != nil {
		return created, fmt.Errorf("failed to create document: %w", err)
	}
	return created, nil
}

func (s *DocumentStore) Get(ctx context.Context, id int64) (docmodel.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM legal_documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("failed to load document: %w", err)
	}
	return d, nil
}

// ListFilter narrows List; zero values mean "no filter".
type ListFilter struct {
	DocumentType string
	Jurisdiction string
	OwnerId      int64
	Offset       int
	Limit        int
}

func (s *DocumentStore) List(ctx context.Context, f ListFilter) ([]docmodel.Document, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM legal_documents
		 WHERE ($1 = '' OR document_type = $1)
		   AND ($2 = '' OR jurisdiction = $2)
		   AND ($3 = 0 OR owner_id = $3)
		 ORDER BY created_at DESC OFFSET $4 LIMIT $5`,
		f.DocumentType, f.Jurisdiction, f.OwnerId, f.Offset, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []docmodel.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SearchLexical is the non-semantic search path: case-insensitive substring
// match on title and content with the usual filters.
func (s *DocumentStore) SearchLexical(ctx context.Context, query string, f ListFilter) ([]docmodel.Document, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM legal_documents
		 WHERE (title ILIKE '%' || $1 || '%' OR content ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR document_type = $2)
		   AND ($3 = '' OR jurisdiction = $3)
		 ORDER BY created_at DESC OFFSET $4 LIMIT $5`,
		query, f.DocumentType, f.Jurisdiction, f.Offset, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var docs []docmodel.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) Update(ctx context.Context, d docmodel.Document) (docmodel.Document, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE legal_documents SET
		   title = COALESCE(NULLIF($2, ''), title),
		   document_type = COALESCE(NULLIF($3, ''), document_type),
		   jurisdiction = COALESCE(NULLIF($4, ''), jurisdiction),
		   summary = COALESCE(NULLIF($5, ''), summary),
		   doc_metadata = COALESCE($6, doc_metadata),
		   updated_at = now()
		 WHERE id = $1`,
		d.Id, d.Title, d.DocumentType, d.Jurisdiction, d.Summary, d.Metadata)
	if err != nil {
		return docmodel.Document{}, fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return docmodel.Document{}, ErrNotFound
	}
	return s.Get(ctx, d.Id)
}

func (s *DocumentStore) SetSummary(ctx context.Context, id int64, summary string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE legal_documents SET summary = $2, updated_at = now() WHERE id = $1`, id, summary)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM legal_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceEntities swaps the extracted entities for a document in one tx;
// the analyzer agent rewrites them wholesale on each run.
func (s *DocumentStore) ReplaceEntities(ctx context.Context, documentId int64, entities []docmodel.Entity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM document_entities WHERE document_id = $1`, documentId); err != nil {
		return fmt.Errorf("failed to clear entities: %w", err)
	}
	for _, e := range entities {
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_entities (document_id, entity_type, entity_text, start_position, end_position)
			 VALUES ($1, $2, $3, $4, $5)`,
			documentId, e.EntityType, e.EntityText, e.StartPos, e.EndPos); err != nil {
			return fmt.Errorf("failed to insert entity: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *DocumentStore) ReplaceKeyTerms(ctx context.Context, documentId int64, terms []docmodel.KeyTerm) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM document_key_terms WHERE document_id = $1`, documentId); err != nil {
		return fmt.Errorf("failed to clear key terms: %w", err)
	}
	for _, t := range terms {
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_key_terms (document_id, term, relevance_score, frequency)
			 VALUES ($1, $2, $3, $4)`,
			documentId, t.Term, t.RelevanceScore, t.Frequency); err != nil {
			return fmt.Errorf("failed to insert key term: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *DocumentStore) KeyTerms(ctx context.Context, documentId int64) ([]docmodel.KeyTerm, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, COALESCE(term, ''), COALESCE(relevance_score, 0),
		        COALESCE(frequency, 0)
		 FROM document_key_terms WHERE document_id = $1
		 ORDER BY relevance_score DESC, frequency DESC, id`, documentId)
	if err != nil {
		return nil, fmt.Errorf("failed to load key terms: %w", err)
	}
	defer rows.Close()

	var terms []docmodel.KeyTerm
	for rows.Next() {
		var t docmodel.KeyTerm
		if err := rows.Scan(&t.Id, &t.DocumentId, &t.Term, &t.RelevanceScore, &t.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan key term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (s *DocumentStore) Entities(ctx context.Context, documentId int64) ([]docmodel.Entity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, COALESCE(entity_type, ''), COALESCE(entity_text, ''),
		        COALESCE(start_position, 0), COALESCE(end_position, 0)
		 FROM document_entities WHERE document_id = $1 ORDER BY id`, documentId)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	defer rows.Close()

	var entities []docmodel.Entity
	for rows.Next() {
		var e docmodel.Entity
		if err := rows.Scan(&e.Id, &e.DocumentId, &e.EntityType, &e.EntityText, &e.StartPos, &e.EndPos); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
