package loader

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts one document per page from a local PDF file. Pages whose
// text cannot be extracted are skipped; failing to open or read the file at
// all is an error.
func loadPDF(path string) ([]Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var docs []Document
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		docs = append(docs, Document{
			Text:          text,
			SourceLocator: fmt.Sprintf("%s#page=%d", path, i),
			Kind:          KindPDF,
		})
	}
	return docs, nil
}
