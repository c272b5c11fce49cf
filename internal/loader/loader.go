// Package loader fetches raw reference material (web pages, PDF files,
// CSV tables) and turns it into plain-text documents for chunking and
// indexing.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxFetchSize = 5 << 20 // 5MB cap on fetched web pages
const fetchTimeout = 30 * time.Second

// Kind identifies how a source is loaded. It is resolved once when the
// source is registered, never by inspecting content at load time.
type Kind string

const (
	KindWeb Kind = "web"
	KindPDF Kind = "pdf"
	KindCSV Kind = "csv"
)

// Source is a registered document source: a locator (URL or file path)
// plus its load kind.
type Source struct {
	Locator string
	Kind    Kind
}

// NewSource builds a Source, resolving the kind from the locator suffix:
// .pdf and .csv get their dedicated extractors, everything else is fetched
// as a web page.
func NewSource(locator string) Source {
	switch {
	case strings.HasSuffix(locator, ".pdf"):
		return Source{Locator: locator, Kind: KindPDF}
	case strings.HasSuffix(locator, ".csv"):
		return Source{Locator: locator, Kind: KindCSV}
	default:
		return Source{Locator: locator, Kind: KindWeb}
	}
}

// Document is one logical unit of ingested text: a web page, a PDF page,
// or a CSV row.
type Document struct {
	Text          string
	SourceLocator string
	Kind          Kind
}

// Loader loads documents from registered sources.
type Loader struct {
	httpClient *http.Client
}

// New creates a Loader. If httpClient is nil a client with a 30s timeout
// is used for web fetches.
func New(httpClient *http.Client) *Loader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: fetchTimeout}
	}
	return &Loader{httpClient: httpClient}
}

// Load fetches and extracts all documents for a source. An error means the
// source was unreachable or unparseable; an empty slice with a nil error is
// a legitimate outcome (nothing worth indexing was found).
func (l *Loader) Load(ctx context.Context, src Source) ([]Document, error) {
	switch src.Kind {
	case KindPDF:
		return loadPDF(src.Locator)
	case KindCSV:
		return loadCSV(src.Locator)
	case KindWeb:
		return l.loadWeb(ctx, src.Locator)
	default:
		return nil, fmt.Errorf("unknown source kind %q for %s", src.Kind, src.Locator)
	}
}

func (l *Loader) loadWeb(ctx context.Context, url string) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "diabe-ai-buddy/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	text, err := extractHTMLText(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	if text == "" {
		return nil, nil
	}

	return []Document{{Text: text, SourceLocator: url, Kind: KindWeb}}, nil
}
