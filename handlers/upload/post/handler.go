// Package post proxies raw upload bodies to the vector store's ingestion
// endpoint and relays the upstream response verbatim.
package post

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/respond"
	"github.com/lotl-ai/lotlchat/models"
)

type Indexer interface {
	Index(ctx context.Context, header http.Header, body io.Reader) (*http.Response, error)
}

func New(log *slog.Logger, indexer Indexer, timeout time.Duration) Handler {
	return Handler{
		log:     log,
		indexer: indexer,
		timeout: timeout,
	}
}

type Handler struct {
	log     *slog.Logger
	indexer Indexer
	timeout time.Duration
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.indexer.Index(ctx, r.Header, r.Body)
	if err != nil {
		h.log.Error("failed to proxy upload", slog.Any("error", err))
		respond.WithJSON(w, models.ChatErrorResponse{OK: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.log.Error("failed to relay upload response", slog.Any("error", err))
	}
}
