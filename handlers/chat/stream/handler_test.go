package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lotl-ai/lotlchat/models"
)

type fakeSearcher struct {
	query   string
	topK    int
	thr     float64
	results []models.SearchResult
}

func (s *fakeSearcher) Search(ctx context.Context, query string, topK int, threshold float64, includeText bool, filters map[string]any) []models.SearchResult {
	s.query = query
	s.topK = topK
	s.thr = threshold
	return s.results
}

// fakeStreamer writes the same frame layout as the real invoker: a meta
// line, then token bytes, then a newline.
type fakeStreamer struct {
	question string
	results  []models.SearchResult
	tokens   []string
}

func (f *fakeStreamer) Stream(ctx context.Context, w io.Writer, question string, results []models.SearchResult) error {
	f.question = question
	f.results = results
	meta := models.StreamMeta{Type: "meta", Sources: make([]models.StreamSource, 0, len(results))}
	for _, r := range results {
		meta.Sources = append(meta.Sources, models.StreamSource{DocID: r.DocID, Filename: r.Filename, Score: r.Score})
	}
	line, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return err
	}
	for _, tok := range f.tokens {
		if _, err := io.WriteString(w, tok); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStreamGet(t *testing.T) {
	results := []models.SearchResult{
		{DocID: "d1", Filename: "a.pdf", Score: 0.9},
		{DocID: "d2", Filename: "b.pdf", Score: 0.4},
		{DocID: "d3", Filename: "c.pdf", Score: 0.3},
	}
	searcher := &fakeSearcher{results: results}
	streamer := &fakeStreamer{tokens: []string{"היי", " שלום"}}
	h := New(newTestLogger(), searcher, streamer, 5, 0.2)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?q="+`שאלה`+"&top_k=3&threshold=0.5", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected a plain text stream, got %q", ct)
	}
	if searcher.query != "שאלה" || searcher.topK != 3 || searcher.thr != 0.5 {
		t.Errorf("expected query params to reach the searcher, got %q %d %v", searcher.query, searcher.topK, searcher.thr)
	}
	if len(streamer.results) != len(results) {
		t.Errorf("expected the retrieved results to reach the streamer, got %d", len(streamer.results))
	}

	first, rest, found := strings.Cut(w.Body.String(), "\n")
	if !found {
		t.Fatal("expected a meta line")
	}
	var meta models.StreamMeta
	if err := json.Unmarshal([]byte(first), &meta); err != nil {
		t.Fatalf("first line is not JSON: %v", err)
	}
	if meta.Type != "meta" {
		t.Errorf("expected meta type, got %q", meta.Type)
	}
	if len(meta.Sources) != len(results) {
		t.Errorf("expected %d sources, got %d", len(results), len(meta.Sources))
	}
	if rest != "היי שלום\n" {
		t.Errorf("expected streamed tokens, got %q", rest)
	}
}

func TestStreamGetParamDefaults(t *testing.T) {
	searcher := &fakeSearcher{}
	h := New(newTestLogger(), searcher, &fakeStreamer{}, 5, 0.2)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?q=x&top_k=oops", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if searcher.topK != 5 || searcher.thr != 0.2 {
		t.Errorf("expected defaults for bad params, got %d %v", searcher.topK, searcher.thr)
	}
}
