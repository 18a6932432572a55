package post

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lotl-ai/lotlchat/llm"
	"github.com/lotl-ai/lotlchat/models"
)

type fakeSearcher struct {
	calls   int
	topK    int
	thr     float64
	results []models.SearchResult
}

func (s *fakeSearcher) Search(ctx context.Context, query string, topK int, threshold float64, includeText bool, filters map[string]any) []models.SearchResult {
	s.calls++
	s.topK = topK
	s.thr = threshold
	return s.results
}

type fakeGenerator struct {
	calls  int
	result llm.Result
	err    error
}

func (g *fakeGenerator) Answer(ctx context.Context, question string, results []models.SearchResult) (llm.Result, error) {
	g.calls++
	return g.result, g.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, h Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatPost(t *testing.T) {
	t.Run("an empty message short-circuits without search or generation", func(t *testing.T) {
		searcher := &fakeSearcher{}
		generator := &fakeGenerator{}
		h := New(newTestLogger(), searcher, generator, 5, 0.2)

		w := post(t, h, `{"message":"   "}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp models.ChatPostResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		expected := models.ChatPostResponse{OK: true, Answer: EmptyQuestionAnswer, Sources: []models.SearchResult{}}
		if diff := cmp.Diff(expected, resp); diff != "" {
			t.Error(diff)
		}
		if searcher.calls != 0 || generator.calls != 0 {
			t.Error("expected neither the searcher nor the generator to be called")
		}
	})

	t.Run("an empty body is treated as an empty question", func(t *testing.T) {
		searcher := &fakeSearcher{}
		generator := &fakeGenerator{}
		h := New(newTestLogger(), searcher, generator, 5, 0.2)

		w := post(t, h, "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp models.ChatPostResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.OK || resp.Answer != EmptyQuestionAnswer {
			t.Errorf("expected the canned empty-question answer, got %+v", resp)
		}
		if searcher.calls != 0 || generator.calls != 0 {
			t.Error("expected neither the searcher nor the generator to be called")
		}
	})

	t.Run("defaults apply when top_k and threshold are absent", func(t *testing.T) {
		searcher := &fakeSearcher{}
		generator := &fakeGenerator{result: llm.Result{Answer: "a"}}
		h := New(newTestLogger(), searcher, generator, 5, 0.2)

		post(t, h, `{"message":"q"}`)
		if searcher.topK != 5 || searcher.thr != 0.2 {
			t.Errorf("expected defaults, got top_k=%d threshold=%v", searcher.topK, searcher.thr)
		}
	})

	t.Run("explicit zero values are respected", func(t *testing.T) {
		searcher := &fakeSearcher{}
		generator := &fakeGenerator{result: llm.Result{Answer: "a"}}
		h := New(newTestLogger(), searcher, generator, 5, 0.2)

		post(t, h, `{"message":"q","top_k":1,"threshold":0}`)
		if searcher.topK != 1 || searcher.thr != 0 {
			t.Errorf("expected explicit values, got top_k=%d threshold=%v", searcher.topK, searcher.thr)
		}
	})

	t.Run("answers carry sources and token usage", func(t *testing.T) {
		results := []models.SearchResult{{DocID: "d1", Filename: "a.pdf", Score: 0.7, Excerpt: "x"}}
		searcher := &fakeSearcher{results: results}
		generator := &fakeGenerator{result: llm.Result{
			Answer: "תשובה",
			Tokens: &models.TokenUsage{Prompt: 10, Completion: 20},
		}}
		h := New(newTestLogger(), searcher, generator, 5, 0.2)

		w := post(t, h, `{"message":"שאלה"}`)
		var resp models.ChatPostResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		expected := models.ChatPostResponse{
			OK:      true,
			Answer:  "תשובה",
			Sources: results,
			Tokens:  &models.TokenUsage{Prompt: 10, Completion: 20},
		}
		if diff := cmp.Diff(expected, resp); diff != "" {
			t.Error(diff)
		}
	})

	t.Run("a generation failure is a 500 with ok=false", func(t *testing.T) {
		searcher := &fakeSearcher{}
		generator := &fakeGenerator{err: errors.New("model unavailable")}
		h := New(newTestLogger(), searcher, generator, 5, 0.2)

		w := post(t, h, `{"message":"q"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		var resp models.ChatErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.OK || !strings.Contains(resp.Error, "model unavailable") {
			t.Errorf("unexpected error body: %+v", resp)
		}
	})

	t.Run("malformed JSON is a 500 with the parse error", func(t *testing.T) {
		h := New(newTestLogger(), &fakeSearcher{}, &fakeGenerator{}, 5, 0.2)
		w := post(t, h, `{`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}
