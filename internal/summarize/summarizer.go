// Package summarize produces summaries and structured analysis of legal
// documents. The LLM provider does the heavy lifting when one is configured;
// otherwise an extractive fallback keeps the endpoints functional.
package summarize

import (
	"context"
	"fmt"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// Options tune a summarization run. Zero values mean the defaults: 500 chars,
// no focus area, citations preserved.
type Options struct {
	MaxLength         int    `json:"max_length,omitempty"`
	FocusArea         string `json:"focus_area,omitempty"`
	PreserveCitations bool   `json:"preserve_citations"`
}

const defaultMaxLength = 500

type Summarizer struct {
	provider llm.Provider
	logger   *logger_i.Logger
}

// NewSummarizer accepts a nil provider; summaries then come from the
// extractive fallback only.
func NewSummarizer(provider llm.Provider) *Summarizer {
	return &Summarizer{
		provider: provider,
		logger:   logger_i.NewLogger("Summarizer"),
	}
}

// Summarize returns a summary of the text and whether the LLM produced it.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts Options) (string, bool) {
	if opts.MaxLength <= 0 {
		opts.MaxLength = defaultMaxLength
	}

	if s.provider != nil {
		summary, err := s.provider.Complete(ctx, config.SummarizerSystemPrompt, buildPrompt(text, opts))
		if err == nil && summary != "" {
			return summary, true
		}
		if err != nil {
			s.logger.Warn("LLM summarization failed, using extractive fallback", "error", err)
		}
	}

	return ExtractiveSummary(text, opts), false
}

func buildPrompt(text string, opts Options) string {
	prompt := fmt.Sprintf("Summarize the following legal document in at most %d characters.", opts.MaxLength)
	if opts.FocusArea != "" {
		prompt += fmt.Sprintf(" Focus on aspects related to: %s.", opts.FocusArea)
	}
	if opts.PreserveCitations {
		prompt += " Preserve all case citations and statute references verbatim."
	}
	return prompt + "\n\nDocument:\n" + text
}
