// Package chunker splits documents into bounded, overlapping text windows
// sized for embedding. Cut points prefer paragraph breaks, then sentence
// ends, and only fall back to an arbitrary character boundary when neither
// fits inside the window.
package chunker

import (
	"strings"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/loader"
)

const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 200
)

// Chunk is the unit of embedding and retrieval: a bounded substring of a
// source document, carrying the source it came from.
type Chunk struct {
	Text          string
	SourceLocator string
}

// Chunker produces deterministic chunk sequences: the same documents and
// parameters always yield the same chunks.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// New creates a Chunker. Non-positive parameters fall back to the defaults
// (1000 character windows with 200 characters of overlap); overlap is
// clamped below maxChunkSize so windows always advance.
func New(maxChunkSize, overlap int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 5
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// Split chunks every document in order. Documents with no text are dropped.
func (c *Chunker) Split(docs []loader.Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for _, text := range c.splitText(doc.Text) {
			chunks = append(chunks, Chunk{Text: text, SourceLocator: doc.SourceLocator})
		}
	}
	return chunks
}

// splitText windows the text so that no window exceeds maxChunkSize runes
// and consecutive windows share exactly overlap runes. Within each window
// the cut lands on the latest paragraph break, else the latest sentence
// end, else the hard limit.
func (c *Chunker) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.maxChunkSize {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(runes) {
		end := start + c.maxChunkSize
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}
		// A cut before start+overlap+1 would make the next window start at
		// or before this one; restrict the boundary search to keep moving.
		cut := cutPoint(runes, start+c.overlap+1, end)
		parts = append(parts, string(runes[start:cut]))
		start = cut - c.overlap
	}
	return parts
}

// cutPoint returns the rune index to cut at, in (min, max]. Paragraph
// breaks win over sentence ends; both beat the hard window limit.
func cutPoint(runes []rune, min, max int) int {
	if p := lastBoundary(runes, min, max, isParagraphBreak); p > 0 {
		return p
	}
	if p := lastBoundary(runes, min, max, isSentenceEnd); p > 0 {
		return p
	}
	return max
}

// lastBoundary scans backward from max for the latest index i in (min, max]
// such that a boundary ends at i (the cut keeps the boundary in the left
// chunk). Returns 0 if no boundary exists in range.
func lastBoundary(runes []rune, min, max int, boundary func([]rune, int) bool) int {
	for i := max; i > min; i-- {
		if boundary(runes, i) {
			return i
		}
	}
	return 0
}

// isParagraphBreak reports whether a blank-line break ends at index i.
func isParagraphBreak(runes []rune, i int) bool {
	return i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n'
}

// isSentenceEnd reports whether a sentence terminator followed by
// whitespace ends at index i.
func isSentenceEnd(runes []rune, i int) bool {
	if i < 2 {
		return false
	}
	last := runes[i-1]
	if last != ' ' && last != '\n' {
		return false
	}
	switch runes[i-2] {
	case '.', '!', '?':
		return true
	}
	return false
}
