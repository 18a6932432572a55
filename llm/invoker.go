// Package llm invokes the generative model. The primary mode sends the
// system and user prompts as one concatenated string; the fallback mode is
// the standard two-message chat call. Streaming always uses the two-message
// call.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/lotl-ai/lotlchat/models"
	"github.com/lotl-ai/lotlchat/prompt"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const temperature = 0.2

var ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY")

type Config struct {
	APIKey string
	Model  string
	// SingleInput selects the concatenated single-string call as the
	// primary mode.
	SingleInput bool
}

func New(log *slog.Logger, cfg Config) *Invoker {
	return &Invoker{
		log: log,
		cfg: cfg,
	}
}

type Invoker struct {
	log *slog.Logger
	cfg Config

	// The model client is created lazily so that a missing API key is a
	// per-request failure, not a startup one. The handle is reused across
	// requests.
	once  sync.Once
	model llms.Model
	err   error
}

func (inv *Invoker) client() (llms.Model, error) {
	inv.once.Do(func() {
		if inv.model != nil {
			return
		}
		if inv.cfg.APIKey == "" {
			inv.err = ErrMissingAPIKey
			return
		}
		inv.model, inv.err = openai.New(
			openai.WithToken(inv.cfg.APIKey),
			openai.WithModel(inv.cfg.Model),
		)
	})
	return inv.model, inv.err
}

// Result is a completed generation.
type Result struct {
	Answer string
	Tokens *models.TokenUsage
}

// Answer runs the two-step strategy: the single-input call first when that
// mode is selected, then the two-message call either as the configured mode
// or as the fallback when the first step errors. The first step's error is
// logged, not swallowed silently; a fallback error propagates to the caller.
func (inv *Invoker) Answer(ctx context.Context, question string, results []models.SearchResult) (Result, error) {
	model, err := inv.client()
	if err != nil {
		return Result{}, err
	}
	system, user := prompt.Compose(question, results)
	if inv.cfg.SingleInput {
		single := []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, strings.TrimSpace(system+"\n\n"+user)),
		}
		res, err := generate(ctx, model, single)
		if err == nil {
			return res, nil
		}
		inv.log.Warn("single-input call failed, falling back to chat messages", slog.Any("error", err))
	}
	return generate(ctx, model, composeMessages(system, user))
}

// Stream writes one meta frame naming the sources, then relays token bytes
// as they arrive, then a trailing newline. A generation failure becomes a
// trailing JSON error frame; a write failure (client gone) ends the stream.
func (inv *Invoker) Stream(ctx context.Context, w io.Writer, question string, results []models.SearchResult) error {
	meta := models.StreamMeta{
		Type:    "meta",
		Sources: make([]models.StreamSource, 0, len(results)),
	}
	for _, r := range results {
		meta.Sources = append(meta.Sources, models.StreamSource{
			DocID:    r.DocID,
			Filename: r.Filename,
			Score:    r.Score,
		})
	}
	line, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if _, err = w.Write(append(line, '\n')); err != nil {
		return err
	}

	model, err := inv.client()
	if err != nil {
		return writeErrorFrame(w, err)
	}
	system, user := prompt.Compose(question, results)

	var writeErr error
	relay := func(ctx context.Context, chunk []byte) error {
		if _, err := w.Write(chunk); err != nil {
			writeErr = err
			return err
		}
		return nil
	}
	_, err = model.GenerateContent(ctx, composeMessages(system, user),
		llms.WithTemperature(temperature),
		llms.WithStreamingFunc(relay),
	)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return writeErrorFrame(w, err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func composeMessages(system, user string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
}

func generate(ctx context.Context, model llms.Model, msgs []llms.MessageContent) (Result, error) {
	resp, err := model.GenerateContent(ctx, msgs, llms.WithTemperature(temperature))
	if err != nil {
		return Result{}, fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("generation returned no choices")
	}
	choice := resp.Choices[0]
	return Result{
		Answer: strings.TrimSpace(choice.Content),
		Tokens: usageFromInfo(choice.GenerationInfo),
	}, nil
}

// usageFromInfo reads token counts best-effort; providers are not required
// to report them.
func usageFromInfo(info map[string]any) *models.TokenUsage {
	if info == nil {
		return nil
	}
	p, pok := info["PromptTokens"].(int)
	c, cok := info["CompletionTokens"].(int)
	if !pok && !cok {
		return nil
	}
	return &models.TokenUsage{Prompt: p, Completion: c}
}

func writeErrorFrame(w io.Writer, cause error) error {
	frame, err := json.Marshal(models.StreamError{Type: "error", Detail: cause.Error()})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\n%s\n", frame)
	return err
}
