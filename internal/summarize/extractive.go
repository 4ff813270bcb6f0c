package summarize

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Section markers common in Nigerian court documents.
var sectionMarkers = []string{
	"JUDGMENT", "RULING", "HELD", "FACTS", "ISSUES FOR DETERMINATION",
	"RATIO DECIDENDI", "OBITER DICTUM", "JUDGMENT DELIVERED BY",
	"REPRESENTATION", "SUMMARY OF FACTS", "DECISION", "ORDER",
}

// Nigerian case citation forms, e.g. [2019] LPELR 12345, (2020) 15 NWLR 123,
// CA/L/142/2019, SUIT NO. 123 OF 2018.
var citationRegex = regexp.MustCompile(`(?i)\[\d{4}\]\s+\w+\s+\d+|\(\d{4}\)\s+\d+\s+\w+\s+\d+|[A-Z]+/[A-Z]+/\d+/\d{4}|[A-Z]+/\d+/\d{4}|LN-[A-Za-z0-9-]+|[A-Z]+\s+NO\.\s*\d+\s+OF\s+\d{4}`)

var dateRegex = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)

var moneyRegex = regexp.MustCompile(`(?i)₦[\d,]+(?:\.\d{2})?|\$[\d,]+(?:\.\d{2})?|NGN\s?[\d,]+|\b\d+\s?(?:naira|dollars?|kobo)\b`)

var sentenceSplit = regexp.MustCompile(`(?m)([^.!?]+[.!?])`)

// CaseCitations returns the distinct case citations found in the text, in
// order of first appearance.
func CaseCitations(text string) []string {
	return dedupe(citationRegex.FindAllString(text, -1))
}

// LegalSections returns the section markers present in the text.
func LegalSections(text string) []string {
	upper := strings.ToUpper(text)
	var found []string
	for _, marker := range sectionMarkers {
		if strings.Contains(upper, marker) {
			found = append(found, marker)
		}
	}
	return found
}

// Dates returns up to limit date strings found in the text.
func Dates(text string, limit int) []string {
	return capped(dedupe(dateRegex.FindAllString(text, -1)), limit)
}

// MonetaryAmounts returns up to limit monetary amounts found in the text.
func MonetaryAmounts(text string, limit int) []string {
	return capped(dedupe(moneyRegex.FindAllString(text, -1)), limit)
}

// ExtractiveSummary builds a summary without an LLM: leading sentences up to
// the length budget, with citations appended when requested.
func ExtractiveSummary(text string, opts Options) string {
	if opts.MaxLength <= 0 {
		opts.MaxLength = defaultMaxLength
	}

	sentences := sentenceSplit.FindAllString(text, -1)
	var b strings.Builder
	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		if b.Len()+len(trimmed)+1 > opts.MaxLength {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(trimmed)
	}

	if b.Len() == 0 {
		// No sentence boundaries at all; hard cut.
		return truncateRunes(text, opts.MaxLength)
	}

	if opts.PreserveCitations {
		if citations := CaseCitations(text); len(citations) > 0 {
			b.WriteString("\n\nCitations: ")
			b.WriteString(strings.Join(citations, "; "))
		}
	}
	return b.String()
}

// legal stopwords excluded from key term counting
var stopwords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true, "a": true,
	"that": true, "is": true, "for": true, "by": true, "on": true, "with": true,
	"as": true, "be": true, "or": true, "this": true, "shall": true, "any": true,
	"such": true, "was": true, "are": true, "it": true, "at": true, "from": true,
	"an": true, "not": true, "have": true, "has": true, "its": true, "which": true,
	"their": true, "there": true, "been": true, "were": true, "will": true,
}

var wordRegex = regexp.MustCompile(`[a-zA-Z]{4,}`)

// TermCount is a key term with its occurrence count.
type TermCount struct {
	Term      string
	Frequency int
}

// KeyTerms returns the most frequent non-stopword terms with their counts.
func KeyTerms(text string, limit int) []TermCount {
	counts := map[string]int{}
	for _, w := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		if !stopwords[w] {
			counts[w]++
		}
	}

	terms := make([]TermCount, 0, len(counts))
	for term, freq := range counts {
		terms = append(terms, TermCount{Term: term, Frequency: freq})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Frequency != terms[j].Frequency {
			return terms[i].Frequency > terms[j].Frequency
		}
		return terms[i].Term < terms[j].Term
	})
	return capped(terms, limit)
}

// truncateRunes cuts s to at most limit bytes without splitting a UTF-8
// sequence; naira signs and other multi-byte runes stay intact.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func capped[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
