package index

import (
	"container/heap"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite"
)

// store holds chunk texts and their embedding vectors in an in-memory
// SQLite table and answers brute-force cosine similarity queries. Every
// store opens its own :memory: database, so indices never share state and
// everything is discarded at process shutdown.
type store struct {
	db *sql.DB
}

func newStore() (*store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory store: %w", err)
	}
	// A :memory: database exists per connection; more than one connection
	// would see different (empty) databases.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE chunks (
			pos INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) close() error {
	return s.db.Close()
}

type record struct {
	Text          string
	SourceLocator string
	Embedding     []float32
}

func (s *store) insert(records []record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO chunks (text, source, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(r.Text, r.SourceLocator, encodeFloat32s(r.Embedding)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// posScore tracks a candidate during the scan phase: its insertion
// position and its similarity to the query.
type posScore struct {
	Pos   int64
	Score float32
}

type scoredRecord struct {
	record
	Score float32
	pos   int64
}

// search scans every stored vector, keeping the top-K by cosine similarity
// in a min-heap, and returns them ordered by score descending with ties
// broken by insertion order.
func (s *store) search(vector []float32, topK int) ([]scoredRecord, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`SELECT pos, text, source, embedding FROM chunks ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	h := &posScoreHeap{}
	heap.Init(h)
	byPos := make(map[int64]record)

	// Reusable buffer for decoding embeddings to avoid per-row allocations.
	var buf []float32

	for rows.Next() {
		var pos int64
		var r record
		var blob []byte
		if err := rows.Scan(&pos, &r.Text, &r.SourceLocator, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		buf, err = decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding at pos %d: %w", pos, err)
		}

		score := cosine(vector, buf, queryNorm)
		if h.Len() < topK {
			heap.Push(h, posScore{Pos: pos, Score: score})
			byPos[pos] = r
		} else if worst := (*h)[0]; score > worst.Score {
			// Strict inequality keeps the earlier-inserted chunk on ties.
			delete(byPos, worst.Pos)
			(*h)[0] = posScore{Pos: pos, Score: score}
			heap.Fix(h, 0)
			byPos[pos] = r
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	results := make([]scoredRecord, 0, h.Len())
	for h.Len() > 0 {
		item := heap.Pop(h).(posScore)
		results = append(results, scoredRecord{record: byPos[item.Pos], Score: item.Score, pos: item.Pos})
	}
	// Pop yields worst-first; reorder by score descending, insertion order
	// on ties.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].pos < results[j].pos
	})
	return results, nil
}

func (s *store) count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32sInto decodes little-endian bytes into the provided buffer,
// reusing it across rows.
func decodeFloat32sInto(buf []float32, b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return buf, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes dot(a,b) / (aNorm * |b|). aNorm is the precomputed L2
// norm of the query vector.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}

// posScoreHeap is a min-heap of posScore ordered by score, worst candidate
// on top. On equal scores the later insertion position is considered worse,
// so earlier chunks win ties.
type posScoreHeap []posScore

func (h posScoreHeap) Len() int { return len(h) }
func (h posScoreHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Pos > h[j].Pos
}
func (h posScoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *posScoreHeap) Push(x interface{}) { *h = append(*h, x.(posScore)) }
func (h *posScoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
