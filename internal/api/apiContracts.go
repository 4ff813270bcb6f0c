package api

import (
	"time"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
)

// ErrorResponse is the error envelope every endpoint returns on failure.
type ErrorResponse struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"Document not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
	ExpiresIn   int    `json:"expires_in" example:"1800"`
}

type UserResponse struct {
	Id        int64     `json:"id" example:"42"`
	Name      string    `json:"name" example:"Ada Obi"`
	Email     string    `json:"email" example:"ada@chambers.ng"`
	Role      string    `json:"role" example:"user"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentResponse struct {
	Id              int64          `json:"id" example:"7"`
	Title           string         `json:"title" example:"Adesanya v. President of Nigeria"`
	DocumentType    string         `json:"document_type,omitempty" example:"court_judgment"`
	Jurisdiction    string         `json:"jurisdiction,omitempty" example:"Federal"`
	PublicationDate *time.Time     `json:"publication_date,omitempty"`
	FileFormat      string         `json:"file_format,omitempty" example:"pdf"`
	WordCount       int            `json:"word_count,omitempty" example:"12840"`
	Summary         string         `json:"summary,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	OwnerId         int64          `json:"owner_id,omitempty" example:"42"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Offset    int                `json:"offset"`
	Limit     int                `json:"limit"`
}

type UploadResponse struct {
	Document       DocumentResponse  `json:"document"`
	IngestTask     *InitTaskResponse `json:"ingest_task,omitempty"`
	AnalysisTask   *InitTaskResponse `json:"analysis_task,omitempty"`
	ExtractedWords int               `json:"extracted_words" example:"12840"`
}

type BatchUploadResponse struct {
	BatchId       string             `json:"batch_id" example:"batch_20260827120000_a1b2c3d4"`
	DocumentCount int                `json:"document_count" example:"3"`
	Status        string             `json:"status" example:"processing"`
	Documents     []DocumentResponse `json:"documents,omitempty"`
	Failed        []BatchFileError   `json:"failed,omitempty"`
}

type BatchFileError struct {
	FileName string `json:"file_name" example:"scan.bmp"`
	Reason   string `json:"reason" example:"unsupported document format: .bmp"`
}

type EntitiesResponse struct {
	DocumentId int64             `json:"document_id" example:"7"`
	Entities   []docmodel.Entity `json:"entities"`
}

type KeyTermsResponse struct {
	DocumentId int64              `json:"document_id" example:"7"`
	KeyTerms   []docmodel.KeyTerm `json:"key_terms"`
}

type SearchResponse struct {
	Query     string             `json:"query" example:"land use act"`
	Mode      string             `json:"mode" example:"lexical"`
	Documents []DocumentResponse `json:"documents,omitempty"`
	Hits      []SemanticHit      `json:"hits,omitempty"`
	Cached    bool               `json:"cached"`
}

type SemanticHit struct {
	DocumentId   int64   `json:"document_id" example:"7"`
	Title        string  `json:"title"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	PageNum      int     `json:"page_num" example:"12"`
	Excerpt      string  `json:"excerpt"`
	Score        float32 `json:"score" example:"0.87"`
}

type AskResponse struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Sources  []SemanticHit `json:"sources,omitempty"`
	Cached   bool          `json:"cached"`
}

type SummaryResponse struct {
	DocumentId     int64    `json:"document_id,omitempty" example:"7"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points,omitempty"`
	Citations      []string `json:"citations,omitempty"`
	OriginalLength int      `json:"original_length" example:"48210"`
	SummaryLength  int      `json:"summary_length" example:"496"`
	AIUsed         bool     `json:"ai_used"`
}

type TaskResponse struct {
	Id          string         `json:"id" example:"0f4cashd-77aq"`
	AgentType   string         `json:"agent_type" example:"document_analyzer"`
	TaskType    string         `json:"task_type" example:"document_analysis"`
	Status      string         `json:"status" example:"COMPLETED"`
	DocumentId  int64          `json:"document_id,omitempty" example:"7"`
	Results     map[string]any `json:"results,omitempty"`
	Error       *TaskError     `json:"error,omitempty"`
	Confidence  float64        `json:"confidence,omitempty" example:"0.85"`
	CreatedTime time.Time      `json:"created_time"`
	StartedTime *time.Time     `json:"started_time,omitempty"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
}

type TaskError struct {
	Code    int    `json:"code" example:"500"`
	Message string `json:"message" example:"document not found"`
	Retry   bool   `json:"can_retry" example:"true"`
}

type InitTaskResponse struct {
	Id        string `json:"id" example:"0f4cashd-77aq"`
	StatusURL string `json:"status_url" example:"/agents/tasks/0f4cashd-77aq"`
}

type CapabilitiesResponse struct {
	Agents []string `json:"agents"`
}

type FeatureHealthResponse struct {
	Features map[string]bool `json:"features"`
}

type HealthResponse struct {
	Status     string            `json:"status" example:"ok"`
	Components map[string]string `json:"components,omitempty"`
}

// requests---------------------

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type UpdateDocumentRequest struct {
	Title        string         `json:"title,omitempty"`
	DocumentType string         `json:"document_type,omitempty"`
	Jurisdiction string         `json:"jurisdiction,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type AskRequest struct {
	Question string   `json:"question" validate:"required"`
	History  []string `json:"history,omitempty"`
}

type SummarizeRequest struct {
	DocumentId        int64  `json:"document_id,omitempty"`
	Text              string `json:"text,omitempty"`
	MaxLength         int    `json:"max_length,omitempty" example:"500"`
	FocusArea         string `json:"focus_area,omitempty"`
	PreserveCitations bool   `json:"preserve_citations,omitempty"`
}

type AnalyzeRequest struct {
	DocumentId int64          `json:"document_id" validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CreateRoleRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description,omitempty"`
	IsDefault     bool    `json:"is_default,omitempty"`
	PermissionIds []int64 `json:"permission_ids,omitempty"`
}

type UpdateRoleRequest struct {
	Name          string  `json:"name,omitempty"`
	Description   string  `json:"description,omitempty"`
	IsDefault     *bool   `json:"is_default,omitempty"`
	PermissionIds []int64 `json:"permission_ids,omitempty"`
}

type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Resource    string `json:"resource" validate:"required"`
	Action      string `json:"action" validate:"required"`
}

type AssignRoleRequest struct {
	UserId int64 `json:"user_id" validate:"required"`
	RoleId int64 `json:"role_id" validate:"required"`
}

type CreateFlagRequest struct {
	Key         string         `json:"key" validate:"required"`
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description,omitempty"`
	IsEnabled   bool           `json:"is_enabled"`
	Config      map[string]any `json:"config,omitempty"`
}

type UpdateFlagRequest struct {
	IsEnabled *bool          `json:"is_enabled,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}
