package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func extractPDF(path string) ([]rawPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening pdf file", "error", err)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// A single bad page should not sink the whole document.
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// extractdocxTxtRtf reads .odt, .docx, .rtf or plaintext files. cat returns
// the whole document at once, so page numbers collapse to 1.
func extractdocxTxtRtf(path string) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc", "error", err)
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}

	return []rawPage{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

// protectExtract guards against pdf pages whose content streams hang the
// parser. Ten seconds per page is far beyond any legitimate parse time.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "error", "timeout")
		return "", errors.New("timeout")
	}
}
