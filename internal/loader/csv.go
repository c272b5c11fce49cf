package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// loadCSV extracts one document per data row from a local CSV file. The
// header row names the fields; each row is rendered as "header: value"
// lines so the text stays meaningful after chunking.
func loadCSV(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv %s: %w", path, err)
	}
	if len(records) < 2 {
		// Header only (or nothing): no data rows is a normal empty result.
		return nil, nil
	}

	header := records[0]
	var docs []Document
	for rowNum, row := range records[1:] {
		var sb strings.Builder
		for i, field := range row {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			name := fmt.Sprintf("column_%d", i+1)
			if i < len(header) {
				name = strings.TrimSpace(header[i])
			}
			fmt.Fprintf(&sb, "%s: %s\n", name, field)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		docs = append(docs, Document{
			Text:          text,
			SourceLocator: fmt.Sprintf("%s#row=%d", path, rowNum+1),
			Kind:          KindCSV,
		})
	}
	return docs, nil
}
