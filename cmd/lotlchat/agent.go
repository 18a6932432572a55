package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lotl-ai/lotlchat/llm"
	"github.com/lotl-ai/lotlchat/planning"
	"github.com/tmc/langchaingo/llms/openai"
)

type AgentCommand struct {
	OpenAIAPIKey string `help:"The OpenAI API key." env:"OPENAI_API_KEY" default:""`
	Model        string `help:"The model to drive the agent with." env:"AGENT_MODEL" default:"gpt-4o-mini"`
	LogLevel     string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
	Question     string `arg:"" help:"The question to ask."`
}

func (c AgentCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	if c.OpenAIAPIKey == "" {
		return llm.ErrMissingAPIKey
	}
	model, err := openai.New(openai.WithToken(c.OpenAIAPIKey), openai.WithModel(c.Model))
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	source := planning.NewTabaInfo(&http.Client{Timeout: 30 * time.Second})
	agent, err := planning.New(log, model, source)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	answer, err := agent.Ask(ctx, c.Question)
	if err != nil {
		return fmt.Errorf("agent run failed: %w", err)
	}
	fmt.Println(answer)
	return nil
}
