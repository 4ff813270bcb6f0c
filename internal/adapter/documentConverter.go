package adapter

import (
	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/search"
)

// ToDocumentResponse strips the full content from the record; list and detail
// endpoints return metadata only, the content travels through search and
// summarization.
func ToDocumentResponse(d docmodel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:              d.Id,
		Title:           d.Title,
		DocumentType:    d.DocumentType,
		Jurisdiction:    d.Jurisdiction,
		PublicationDate: d.PublicationDate,
		FileFormat:      d.FileFormat,
		WordCount:       d.WordCount,
		Summary:         d.Summary,
		Metadata:        d.Metadata,
		OwnerId:         d.OwnerId,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func ToDocumentListResponse(docs []docmodel.Document, offset, limit int) api.DocumentListResponse {
	out := make([]api.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return api.DocumentListResponse{Documents: out, Offset: offset, Limit: limit}
}

func ToUserResponse(u usermodel.User) api.UserResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}
	return api.UserResponse{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}

func ToSearchResponse(query string, result search.Result) api.SearchResponse {
	res := api.SearchResponse{
		Query:  query,
		Mode:   result.Mode,
		Cached: result.Cached,
	}
	for _, d := range result.Documents {
		res.Documents = append(res.Documents, ToDocumentResponse(d))
	}
	for _, h := range result.Hits {
		res.Hits = append(res.Hits, api.SemanticHit{
			DocumentId:   h.DocumentId,
			Title:        h.Title,
			Jurisdiction: h.Jurisdiction,
			PageNum:      h.PageNum,
			Excerpt:      h.Excerpt,
			Score:        h.Score,
		})
	}
	return res
}

func ToAskResponse(question string, answer rag.Answer) api.AskResponse {
	res := api.AskResponse{
		Question: question,
		Answer:   answer.Text,
		Cached:   answer.Cached,
	}
	for _, m := range answer.Sources {
		res.Sources = append(res.Sources, api.SemanticHit{
			DocumentId:   m.DocumentId,
			Title:        m.Title,
			Jurisdiction: m.Jurisdiction,
			PageNum:      m.PageNum,
			Excerpt:      m.Content,
			Score:        m.Score,
		})
	}
	return res
}
