package post

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/respond"
	"github.com/lotl-ai/lotlchat/llm"
	"github.com/lotl-ai/lotlchat/models"
)

// EmptyQuestionAnswer is the canned reply for a blank message. It is sent
// without touching the vector store or the model.
const EmptyQuestionAnswer = "שאלה ריקה."

type Searcher interface {
	Search(ctx context.Context, query string, topK int, threshold float64, includeText bool, filters map[string]any) []models.SearchResult
}

type Generator interface {
	Answer(ctx context.Context, question string, results []models.SearchResult) (llm.Result, error)
}

func New(log *slog.Logger, searcher Searcher, generator Generator, defaultTopK int, defaultThreshold float64) Handler {
	return Handler{
		log:              log,
		searcher:         searcher,
		generator:        generator,
		defaultTopK:      defaultTopK,
		defaultThreshold: defaultThreshold,
	}
}

type Handler struct {
	log              *slog.Logger
	searcher         Searcher
	generator        Generator
	defaultTopK      int
	defaultThreshold float64
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.ChatPostRequest
	// An empty body is an empty question, not a parse error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithJSON(w, models.ChatErrorResponse{OK: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	question := strings.TrimSpace(req.Message)
	if question == "" {
		respond.WithJSON(w, models.ChatPostResponse{
			OK:      true,
			Answer:  EmptyQuestionAnswer,
			Sources: []models.SearchResult{},
		}, http.StatusOK)
		return
	}

	topK := h.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	results := h.searcher.Search(r.Context(), question, topK, threshold, true, req.Filters)

	res, err := h.generator.Answer(r.Context(), question, results)
	if err != nil {
		h.log.Error("failed to generate answer", slog.Any("error", err))
		respond.WithJSON(w, models.ChatErrorResponse{OK: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []models.SearchResult{}
	}
	respond.WithJSON(w, models.ChatPostResponse{
		OK:      true,
		Answer:  res.Answer,
		Sources: results,
		Tokens:  res.Tokens,
	}, http.StatusOK)
}
