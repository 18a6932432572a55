package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/a-h/respond"
	"github.com/lotl-ai/lotlchat/auth"
	chatpost "github.com/lotl-ai/lotlchat/handlers/chat/post"
	chatstream "github.com/lotl-ai/lotlchat/handlers/chat/stream"
	healthget "github.com/lotl-ai/lotlchat/handlers/health/get"
	uiget "github.com/lotl-ai/lotlchat/handlers/ui/get"
	uploadpost "github.com/lotl-ai/lotlchat/handlers/upload/post"
	"github.com/lotl-ai/lotlchat/llm"
	"github.com/lotl-ai/lotlchat/models"
	"github.com/lotl-ai/lotlchat/vs"
	"github.com/rs/cors"
)

type ServeCommand struct {
	OpenAIAPIKey     string  `help:"The OpenAI API key." env:"OPENAI_API_KEY" default:""`
	ChatModel        string  `help:"The model to answer with." env:"CHAT_MODEL" default:"gpt-4o-mini"`
	UseSingleInput   bool    `help:"Use the single-input completion call as the primary mode." env:"CHAT_USE_RESPONSES" default:"true" negatable:""`
	Port             int     `help:"The port to listen on." env:"CHAT_PORT,PORT" default:"8004"`
	VSAPIBase        string  `help:"The base URL of the vector store API." env:"VS_API_BASE" default:"http://localhost:8003"`
	VSAPIKey         string  `help:"The API key for the vector store." env:"LOT_API_SECRET" default:""`
	APISecret        string  `help:"Shared secret required on /api/* routes when set." env:"CHAT_API_SECRET" default:""`
	CORSAllowOrigins string  `help:"Comma-separated origin allow-list; empty allows any origin." env:"CORS_ALLOW_ORIGINS" default:""`
	TimeoutSeconds   int     `help:"Timeout for vector store calls, in seconds." env:"TIMEOUT_S" default:"60"`
	TopK             int     `help:"Default number of context snippets to retrieve." env:"TOP_K" default:"5"`
	Threshold        float64 `help:"Default minimum similarity score." env:"SIM_THRESHOLD" default:"0.2"`
	LogLevel         string  `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	if c.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY not set, chat requests will fail")
	}

	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	vsBase := strings.TrimRight(c.VSAPIBase, "/")
	store := vs.New(log, vsBase, c.VSAPIKey, timeout)
	invoker := llm.New(log, llm.Config{
		APIKey:      c.OpenAIAPIKey,
		Model:       c.ChatModel,
		SingleInput: c.UseSingleInput,
	})

	handler := newCORS(splitOrigins(c.CORSAllowOrigins)).Handler(c.routes(log, store, invoker, timeout, vsBase))

	s := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Port),
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErrs := make(chan error, 1)
	go func() {
		log.Info("listening", slog.Int("port", c.Port), slog.String("model", c.ChatModel), slog.String("vs", vsBase))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
		}
	}()

	select {
	case err = <-serveErrs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (c ServeCommand) routes(log *slog.Logger, store *vs.Client, invoker *llm.Invoker, timeout time.Duration, vsBase string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /health", healthget.New(c.Port, c.ChatModel, vsBase))
	mux.Handle("GET /chat", uiget.New())

	api := http.NewServeMux()
	api.Handle("POST /api/chat", chatpost.New(log, store, invoker, c.TopK, c.Threshold))
	api.Handle("GET /api/chat/stream", chatstream.New(log, store, invoker, c.TopK, c.Threshold))
	api.Handle("POST /api/upload", uploadpost.New(log, store, timeout))
	api.HandleFunc("/", notFound)
	mux.Handle("/api/", auth.New(c.APISecret, api))

	mux.HandleFunc("/", notFound)

	return allowOptions(mux)
}

// allowOptions answers OPTIONS on every path with 204. Preflight OPTIONS is
// terminated by the CORS layer before reaching this handler; this covers the
// non-preflight case.
func allowOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respond.WithJSON(w, models.ErrorResponse{Error: "not_found"}, http.StatusNotFound)
}

func splitOrigins(s string) (origins []string) {
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// newCORS allows any origin when no allow-list is configured; with one,
// only listed origins get the Access-Control-Allow-Origin echo.
func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		return cors.AllowAll()
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", auth.Header},
		AllowCredentials: true,
	})
}
