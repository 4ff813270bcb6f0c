package summarize

import (
	"context"
	"strings"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
)

// FlagChecker is the slice of the feature flag service the analyzer needs.
type FlagChecker interface {
	IsEnabled(ctx context.Context, flagKey string, userId int64) bool
}

// Feature flag keys that gate the analysis steps.
const (
	FlagDocumentAnalysis  = "enable_document_analysis_agent"
	FlagEntityExtraction  = "enable_enhanced_entity_extraction"
	FlagDocClassification = "enable_document_classification"
	FlagRiskAssessment    = "enable_risk_assessment"
)

// Analysis is the structured output of the document analyzer agent.
type Analysis struct {
	Results      map[string]any
	Entities     []docmodel.Entity
	KeyTerms     []docmodel.KeyTerm
	DocumentType string
	Confidence   float64
}

// AnalyzeDocument runs the analysis pipeline over a document. Individual
// steps are feature flagged; citation extraction always runs.
func (s *Summarizer) AnalyzeDocument(ctx context.Context, doc docmodel.Document, params map[string]any, flags FlagChecker, userId int64) Analysis {
	results := map[string]any{}

	if flags == nil || flags.IsEnabled(ctx, FlagDocumentAnalysis, userId) {
		opts := optionsFromParams(params)
		text, fromLLM := s.Summarize(ctx, doc.Content, opts)
		results["summary"] = map[string]any{
			"text":       text,
			"max_length": opts.MaxLength,
			"from_llm":   fromLLM,
		}
	}

	var entities []docmodel.Entity
	if flags == nil || flags.IsEnabled(ctx, FlagEntityExtraction, userId) {
		entities = ExtractEntities(doc)
		results["entities"] = entities
	}

	docType := ""
	if flags == nil || flags.IsEnabled(ctx, FlagDocClassification, userId) {
		docType = ClassifyDocument(doc.Content)
		results["document_type"] = docType
	}

	if docType == "contract" || docType == "legal_document" {
		if flags == nil || flags.IsEnabled(ctx, FlagRiskAssessment, userId) {
			results["risk_analysis"] = AssessRisks(doc.Content)
		}
	}

	results["legal_references"] = map[string]any{
		"case_citations": CaseCitations(doc.Content),
		"legal_sections": LegalSections(doc.Content),
	}

	keyTerms := buildKeyTerms(doc)

	return Analysis{
		Results:      results,
		Entities:     entities,
		KeyTerms:     keyTerms,
		DocumentType: docType,
		Confidence:   confidenceScore(results),
	}
}

func optionsFromParams(params map[string]any) Options {
	opts := Options{PreserveCitations: true}
	if v, ok := params["max_summary_length"].(float64); ok {
		opts.MaxLength = int(v)
	}
	if v, ok := params["focus_area"].(string); ok {
		opts.FocusArea = v
	}
	if v, ok := params["preserve_citations"].(bool); ok {
		opts.PreserveCitations = v
	}
	return opts
}

// ExtractEntities pulls citations, dates and monetary amounts from the
// document content as typed entities.
func ExtractEntities(doc docmodel.Document) []docmodel.Entity {
	var entities []docmodel.Entity

	add := func(entityType string, values []string) {
		for _, v := range values {
			entities = append(entities, docmodel.Entity{
				DocumentId: doc.Id,
				EntityType: entityType,
				EntityText: v,
			})
		}
	}

	add("case_citation", CaseCitations(doc.Content))
	add("date", Dates(doc.Content, 10))
	add("monetary_amount", MonetaryAmounts(doc.Content, 10))
	add("legal_section", LegalSections(doc.Content))
	return entities
}

func buildKeyTerms(doc docmodel.Document) []docmodel.KeyTerm {
	scored := KeyTerms(doc.Content, 20)
	if len(scored) == 0 {
		return nil
	}

	top := float64(scored[0].Frequency)
	out := make([]docmodel.KeyTerm, 0, len(scored))
	for _, t := range scored {
		out = append(out, docmodel.KeyTerm{
			DocumentId:     doc.Id,
			Term:           t.Term,
			Frequency:      t.Frequency,
			RelevanceScore: float64(t.Frequency) / top,
		})
	}
	return out
}

// ClassifyDocument does keyword based classification of legal document types.
func ClassifyDocument(text string) string {
	lower := strings.ToLower(text)

	count := func(keywords ...string) int {
		n := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		return n
	}

	if count("agreement", "contract", "party", "whereas", "consideration", "covenant") >= 3 {
		return "contract"
	}
	if count("judgment", "ruling", "court", "plaintiff", "defendant", "held") >= 3 {
		return "court_judgment"
	}
	if count("legal opinion", "advised", "counsel", "chambers") >= 1 {
		return "legal_opinion"
	}
	if count("act", "law", "section", "subsection", "provision") >= 3 {
		return "statute"
	}
	return "legal_document"
}

// AssessRisks scores contracts and legal documents for risky clauses.
func AssessRisks(text string) map[string]any {
	lower := strings.ToLower(text)

	count := func(terms []string) int {
		n := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				n++
			}
		}
		return n
	}

	highRisk := count([]string{"penalty", "damages", "termination", "breach", "default", "liability"})
	mediumRisk := count([]string{"obligation", "warranty", "indemnity", "force majeure"})

	riskLevel := "low"
	var risks, recommendations []string

	switch {
	case highRisk >= 3:
		riskLevel = "high"
		risks = append(risks, "Multiple high-risk clauses detected")
		recommendations = append(recommendations, "Detailed legal review required")
	case highRisk >= 1 || mediumRisk >= 3:
		riskLevel = "medium"
		risks = append(risks, "Potential risk clauses identified")
		recommendations = append(recommendations, "Legal review recommended")
	}

	if strings.Contains(lower, "unlimited liability") {
		riskLevel = "high"
		risks = append(risks, "Unlimited liability clause detected")
	}
	if !strings.Contains(lower, "governing law") && strings.Contains(lower, "contract") {
		risks = append(risks, "No governing law clause found")
		recommendations = append(recommendations, "Add governing law clause")
	}

	score := highRisk*20 + mediumRisk*10
	if score > 100 {
		score = 100
	}

	return map[string]any{
		"risk_level":      riskLevel,
		"risk_factors":    risks,
		"recommendations": recommendations,
		"risk_score":      score,
	}
}

// confidenceScore grows with each analysis step that produced output.
func confidenceScore(results map[string]any) float64 {
	confidence := 0.5

	if summary, ok := results["summary"].(map[string]any); ok {
		if text, _ := summary["text"].(string); text != "" {
			confidence += 0.2
		}
	}
	if entities, ok := results["entities"].([]docmodel.Entity); ok && len(entities) > 0 {
		confidence += 0.15
	}
	if docType, ok := results["document_type"].(string); ok && docType != "" && docType != "unknown" {
		confidence += 0.1
	}
	if _, ok := results["risk_analysis"]; ok {
		confidence += 0.05
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
