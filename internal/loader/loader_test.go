package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewSource_KindDispatch(t *testing.T) {
	tests := []struct {
		locator string
		want    Kind
	}{
		{"https://example.com/page.html", KindWeb},
		{"https://example.com/guide", KindWeb},
		{"https://example.com/report.pdf", KindPDF},
		{"./data/nutritiondata.csv", KindCSV},
		{"/abs/path/table.csv", KindCSV},
	}
	for _, tt := range tests {
		if got := NewSource(tt.locator).Kind; got != tt.want {
			t.Errorf("NewSource(%q).Kind = %q, want %q", tt.locator, got, tt.want)
		}
	}
}

func TestLoad_Web(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>x</title><style>p{color:red}</style></head>
			<body><script>var x=1;</script>
			<h1>Blood sugar basics</h1>
			<p>Check your glucose   regularly.</p>
			<p>Keep a log.</p></body></html>`))
	}))
	defer srv.Close()

	l := New(srv.Client())
	docs, err := l.Load(context.Background(), NewSource(srv.URL))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	text := docs[0].Text
	if !strings.Contains(text, "Blood sugar basics") || !strings.Contains(text, "Check your glucose regularly.") {
		t.Errorf("extracted text missing content: %q", text)
	}
	if strings.Contains(text, "var x=1") || strings.Contains(text, "color:red") {
		t.Errorf("extracted text contains script/style content: %q", text)
	}
	if docs[0].SourceLocator != srv.URL {
		t.Errorf("SourceLocator = %q, want %q", docs[0].SourceLocator, srv.URL)
	}
}

func TestLoad_WebErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	l := New(srv.Client())
	if _, err := l.Load(context.Background(), NewSource(srv.URL)); err == nil {
		t.Fatal("Load on 403 should fail")
	}
}

func TestLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "food.csv")
	content := "food,carbs_g,glycemic_index\nwhite rice,45,73\nlentils,20,32\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}

	l := New(nil)
	docs, err := l.Load(context.Background(), NewSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2 (one per row)", len(docs))
	}
	if !strings.Contains(docs[0].Text, "food: white rice") || !strings.Contains(docs[0].Text, "carbs_g: 45") {
		t.Errorf("row text = %q, want header: value lines", docs[0].Text)
	}
	if docs[1].SourceLocator != path+"#row=2" {
		t.Errorf("SourceLocator = %q, want row locator", docs[1].SourceLocator)
	}
}

func TestLoad_CSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("food,carbs_g\n"), 0o644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}

	l := New(nil)
	docs, err := l.Load(context.Background(), NewSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents, want 0 for header-only csv", len(docs))
	}
}

func TestLoad_CSVMissing(t *testing.T) {
	l := New(nil)
	if _, err := l.Load(context.Background(), NewSource("/does/not/exist.csv")); err == nil {
		t.Fatal("Load on missing file should fail")
	}
}

func TestLoad_PDFMissing(t *testing.T) {
	l := New(nil)
	if _, err := l.Load(context.Background(), NewSource("/does/not/exist.pdf")); err == nil {
		t.Fatal("Load on missing file should fail")
	}
}
