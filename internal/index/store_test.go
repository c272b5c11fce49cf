package index

import (
	"testing"
)

func makeTestVector(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.001
	}
	return v
}

func TestStore_InsertAndSearch(t *testing.T) {
	s, err := newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.close()

	vec := makeTestVector(64, 0.1)
	err = s.insert([]record{{
		Text:          "fiber slows glucose absorption",
		SourceLocator: "test://csv",
		Embedding:     vec,
	}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := s.search(vec, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Score < 0.99 {
		t.Errorf("score = %f, want > 0.99", results[0].Score)
	}
	if results[0].Text != "fiber slows glucose absorption" {
		t.Errorf("text = %q", results[0].Text)
	}
}

func TestStore_SearchTopK(t *testing.T) {
	s, err := newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.close()

	var records []record
	for i := 0; i < 10; i++ {
		records = append(records, record{
			Text:          "text",
			SourceLocator: "test://doc",
			Embedding:     makeTestVector(64, float32(i)*0.01),
		})
	}
	if err := s.insert(records); err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := s.search(makeTestVector(64, 0.05), 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestStore_SearchEmptyTable(t *testing.T) {
	s, err := newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.close()

	results, err := s.search(makeTestVector(64, 0.1), 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestStore_ZeroQueryVector(t *testing.T) {
	s, err := newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.close()

	if err := s.insert([]record{{Text: "t", SourceLocator: "s", Embedding: makeTestVector(4, 0.1)}}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := s.search(make([]float32, 4), 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for zero-norm query, want 0", len(results))
	}
}

func TestStore_Count(t *testing.T) {
	s, err := newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.close()

	if err := s.insert([]record{
		{Text: "a", SourceLocator: "s", Embedding: makeTestVector(4, 0.1)},
		{Text: "b", SourceLocator: "s", Embedding: makeTestVector(4, 0.2)},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := s.count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
