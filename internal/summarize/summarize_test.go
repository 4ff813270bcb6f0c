package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
)

const judgmentText = `JUDGMENT delivered by the Court of Appeal. The plaintiff filed suit
CA/L/142/2019 against the defendant for breach of contract. HELD: the defendant is liable
for damages of ₦5,000,000.00 payable on or before 12/05/2020. The ruling in [2019] LPELR 12345
applies. The penalty clause and termination provisions create liability for the defendant.`

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Generate(ctx context.Context, q string, m []string, h []string) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Complete(ctx context.Context, sys string, user string) (string, error) {
	return s.response, s.err
}

func TestSummarizeUsesProvider(t *testing.T) {
	s := NewSummarizer(&stubProvider{response: "llm summary"})

	text, fromLLM := s.Summarize(context.Background(), judgmentText, Options{})
	assert.True(t, fromLLM)
	assert.Equal(t, "llm summary", text)
}

func TestSummarizeFallsBackOnProviderError(t *testing.T) {
	s := NewSummarizer(&stubProvider{err: errors.New("provider down")})

	text, fromLLM := s.Summarize(context.Background(), judgmentText, Options{MaxLength: 200})
	assert.False(t, fromLLM)
	assert.NotEmpty(t, text)
}

func TestSummarizeWithoutProvider(t *testing.T) {
	s := NewSummarizer(nil)

	text, fromLLM := s.Summarize(context.Background(), judgmentText, Options{PreserveCitations: true})
	assert.False(t, fromLLM)
	assert.Contains(t, text, "Citations:")
	assert.Contains(t, text, "CA/L/142/2019")
}

func TestExtractiveSummaryRespectsLength(t *testing.T) {
	text := strings.Repeat("This is a sentence about the contract. ", 100)
	summary := ExtractiveSummary(text, Options{MaxLength: 120})
	assert.LessOrEqual(t, len(summary), 120)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(summary), "."))
}

func TestExtractiveSummaryHardCutKeepsValidUTF8(t *testing.T) {
	// No sentence boundaries, so the summary is a hard cut; it must not land
	// inside a multi-byte rune.
	text := strings.Repeat("₦500000 ", 40)
	summary := ExtractiveSummary(text, Options{MaxLength: 10})
	assert.True(t, utf8.ValidString(summary))
	assert.LessOrEqual(t, len(summary), 10)
}

func TestCaseCitations(t *testing.T) {
	citations := CaseCitations(judgmentText)
	assert.Contains(t, citations, "CA/L/142/2019")
	assert.Contains(t, citations, "[2019] LPELR 12345")
}

func TestLegalSections(t *testing.T) {
	sections := LegalSections(judgmentText)
	assert.Contains(t, sections, "JUDGMENT")
	assert.Contains(t, sections, "HELD")
	assert.NotContains(t, sections, "OBITER DICTUM")
}

func TestDatesAndAmounts(t *testing.T) {
	assert.Contains(t, Dates(judgmentText, 10), "12/05/2020")
	amounts := MonetaryAmounts(judgmentText, 10)
	require.NotEmpty(t, amounts)
	assert.Contains(t, amounts[0], "₦")
}

func TestClassifyDocument(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"this agreement between the party of the first part, whereas consideration", "contract"},
		{"the court entered judgment, the plaintiff and defendant, it was held", "court_judgment"},
		{"per our legal opinion, counsel has advised", "legal_opinion"},
		{"the act provides in section 4 subsection 2 a provision such that the law", "statute"},
		{"plain text with nothing legal", "legal_document"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyDocument(tt.text), tt.text)
	}
}

func TestAssessRisks(t *testing.T) {
	risky := AssessRisks("penalty damages termination breach of this contract")
	assert.Equal(t, "high", risky["risk_level"])

	calm := AssessRisks("a friendly memorandum of understanding")
	assert.Equal(t, "low", calm["risk_level"])
}

func TestKeyTermsExcludesStopwords(t *testing.T) {
	terms := KeyTerms("the employer shall pay the employee and the employer shall provide notice", 5)
	require.NotEmpty(t, terms)
	assert.Equal(t, "employer", terms[0].Term)
	assert.Equal(t, 2, terms[0].Frequency)
	for _, term := range terms {
		assert.False(t, stopwords[term.Term])
	}
}

func TestAnalyzeDocumentFullPipeline(t *testing.T) {
	s := NewSummarizer(nil)
	doc := docmodel.Document{Id: 3, Title: "Appeal Ruling", Content: judgmentText}

	analysis := s.AnalyzeDocument(context.Background(), doc, nil, nil, 1)

	assert.Equal(t, "court_judgment", analysis.DocumentType)
	assert.NotEmpty(t, analysis.Entities)
	assert.NotEmpty(t, analysis.KeyTerms)
	assert.GreaterOrEqual(t, analysis.Confidence, 0.5)
	assert.LessOrEqual(t, analysis.Confidence, 1.0)

	refs := analysis.Results["legal_references"].(map[string]any)
	assert.NotEmpty(t, refs["case_citations"])
}

type deniedFlags struct{}

func (deniedFlags) IsEnabled(context.Context, string, int64) bool { return false }

func TestAnalyzeDocumentRespectsFlags(t *testing.T) {
	s := NewSummarizer(nil)
	doc := docmodel.Document{Id: 3, Content: judgmentText}

	analysis := s.AnalyzeDocument(context.Background(), doc, nil, deniedFlags{}, 1)

	_, hasSummary := analysis.Results["summary"]
	assert.False(t, hasSummary)
	assert.Empty(t, analysis.Entities)
	// citation extraction is not flag gated
	assert.Contains(t, analysis.Results, "legal_references")
}
