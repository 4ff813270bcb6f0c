package rag_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/rag/ingest"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
)

func TestAnswerQuestion_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		expectedAnswer string
		expectedCached bool
		expectErr      bool
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "", false, nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
			},
			expectedAnswer: "cached answer",
			expectedCached: true,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectErr: true,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, v []float32, limit uint64) ([]vectorDB.Match, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectErr: true,
		},
		{
			name: "Failure_LLM_Generation",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mVec, mLLM)

			s := rag.NewService(mVec, mLLM, mEmbed, "gemini-embedding-001")

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			answer, err := s.AnswerQuestion(ctx, "what does section 12 require", nil)

			if tt.expectErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("AnswerQuestion failed: %v", err)
			}
			if answer.Text != tt.expectedAnswer {
				t.Errorf("Answer got %q, want %q", answer.Text, tt.expectedAnswer)
			}
			if answer.Cached != tt.expectedCached {
				t.Errorf("Cached got %v, want %v", answer.Cached, tt.expectedCached)
			}
		})
	}
}

func TestAnswerQuestion_Unavailable(t *testing.T) {
	s := rag.NewService(nil, nil, nil, "gemini-embedding-001")
	_, err := s.AnswerQuestion(context.Background(), "anything", nil)
	if !errors.Is(err, rag.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSemanticSearch_ReturnsMatches(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, v []float32, limit uint64) ([]vectorDB.Match, error) {
			if limit != 5 {
				t.Errorf("limit got %d, want 5", limit)
			}
			return []vectorDB.Match{{Content: "the employer shall", DocumentId: 9, Title: "Employment Act", PageNum: 3}}, nil
		},
	}

	s := rag.NewService(mVec, &MockLLM{}, &MockEmbedder{}, "gemini-embedding-001")

	matches, err := s.SemanticSearch(context.Background(), "employer obligations", 5)
	if err != nil {
		t.Fatalf("SemanticSearch failed: %v", err)
	}
	if len(matches) != 1 || matches[0].DocumentId != 9 {
		t.Errorf("unexpected matches: %+v", matches)
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB)
		expectedStatus taskmodel.TaskStatus
	}{
		{
			name:           "Ingestion_Success",
			setupMocks:     func(e *MockEmbedder, v *MockVectorDB) {},
			expectedStatus: taskmodel.TaskStatusCompleted,
		},
		{
			name: "Failure_Collection_Creation",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnEnsureCollection = func(ctx context.Context, name string) error {
					return errors.New("connection refused")
				}
			},
			expectedStatus: taskmodel.TaskStatusFailed,
		},
		{
			name: "Failure_Batch_Upsert",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB) {
				v.OnUpsertBatch = func(ctx context.Context, coll string, chunks []docmodel.DocChunk, vectors [][]float32) error {
					return errors.New("disk full")
				}
			},
			expectedStatus: taskmodel.TaskStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummyFile := filepath.Join(t.TempDir(), "notice.txt")
			if err := os.WriteFile(dummyFile, []byte("notice of termination under section 12"), 0644); err != nil {
				t.Fatal(err)
			}

			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			tt.setupMocks(mEmbed, mVec)

			s := rag.NewService(mVec, &MockLLM{}, mEmbed, "gemini-embedding-001")

			task := taskmodel.Task{
				Id:        "ingest-task-1",
				AgentType: taskmodel.AgentRAGIngest,
				TaskType:  taskmodel.TaskTypeDocumentIngest,
				Status:    taskmodel.TaskStatusRunning,
			}
			req := ingest.Request{
				DocumentId: 42,
				Title:      "Termination Notice",
				FilePath:   dummyFile,
			}

			result := s.IngestDocument(context.Background(), task, req)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedStatus == taskmodel.TaskStatusCompleted {
				if result.Results["chunks_indexed"].(int) < 1 {
					t.Error("expected at least one indexed chunk")
				}
				if _, err := os.Stat(dummyFile); !os.IsNotExist(err) {
					t.Error("uploaded file should be removed after ingest")
				}
			}
		})
	}
}
