// Package stream serves GET /api/chat/stream: one JSON meta line, then raw
// token bytes as they arrive, over a single long-lived plain-text response.
package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lotl-ai/lotlchat/models"
)

type Searcher interface {
	Search(ctx context.Context, query string, topK int, threshold float64, includeText bool, filters map[string]any) []models.SearchResult
}

type Streamer interface {
	Stream(ctx context.Context, w io.Writer, question string, results []models.SearchResult) error
}

func New(log *slog.Logger, searcher Searcher, streamer Streamer, defaultTopK int, defaultThreshold float64) Handler {
	return Handler{
		log:              log,
		searcher:         searcher,
		streamer:         streamer,
		defaultTopK:      defaultTopK,
		defaultThreshold: defaultThreshold,
	}
}

type Handler struct {
	log              *slog.Logger
	searcher         Searcher
	streamer         Streamer
	defaultTopK      int
	defaultThreshold float64
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	topK := intParam(r, "top_k", h.defaultTopK)
	threshold := floatParam(r, "threshold", h.defaultThreshold)

	results := h.searcher.Search(r.Context(), q, topK, threshold, true, nil)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// A client disconnect surfaces as a write error and ends the handler;
	// there is no in-band way to report it by then.
	if err := h.streamer.Stream(r.Context(), flushWriter{w}, q, results); err != nil {
		h.log.Error("stream ended with error", slog.Any("error", err))
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

func floatParam(r *http.Request, name string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return fallback
	}
	return v
}

// flushWriter flushes after every write so tokens reach the client as they
// are produced.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw flushWriter) Write(p []byte) (n int, err error) {
	n, err = fw.w.Write(p)
	if flusher, canFlush := fw.w.(http.Flusher); canFlush {
		flusher.Flush()
	}
	return n, err
}
