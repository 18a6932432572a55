package post

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeIndexer struct {
	body string
	resp *http.Response
	err  error
}

func (f *fakeIndexer) Index(ctx context.Context, header http.Header, body io.Reader) (*http.Response, error) {
	b, _ := io.ReadAll(body)
	f.body = string(b)
	return f.resp, f.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadPost(t *testing.T) {
	t.Run("upstream status and body are relayed verbatim", func(t *testing.T) {
		upstream := `{"ok":true,"indexed":3}`
		indexer := &fakeIndexer{
			resp: &http.Response{
				StatusCode: http.StatusCreated,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(upstream)),
			},
		}
		h := New(newTestLogger(), indexer, time.Second)

		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("opaque-multipart-bytes"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected upstream status, got %d", w.Code)
		}
		if w.Body.String() != upstream {
			t.Errorf("expected upstream body, got %q", w.Body.String())
		}
		if indexer.body != "opaque-multipart-bytes" {
			t.Errorf("expected raw body to be forwarded, got %q", indexer.body)
		}
	})

	t.Run("a proxy failure is a 500 with ok=false", func(t *testing.T) {
		indexer := &fakeIndexer{err: errors.New("connection refused")}
		h := New(newTestLogger(), indexer, time.Second)

		req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "connection refused") {
			t.Errorf("expected the error detail, got %q", w.Body.String())
		}
	})
}
