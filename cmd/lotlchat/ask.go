package main

import (
	"context"
	"fmt"

	"github.com/lotl-ai/lotlchat/client"
	"github.com/lotl-ai/lotlchat/models"
)

type AskCommand struct {
	ChatServerURL string  `help:"The URL of the chat server." env:"CHAT_SERVER_URL" default:"http://localhost:8004"`
	APIKey        string  `help:"The shared secret for the chat server." env:"CHAT_API_SECRET" default:""`
	TopK          int     `help:"Number of context snippets to retrieve." env:"TOP_K" default:"5"`
	Threshold     float64 `help:"Minimum similarity score." env:"SIM_THRESHOLD" default:"0.2"`
	Question      string  `arg:"" help:"The question to ask."`
}

func (c AskCommand) Run(ctx context.Context) (err error) {
	rsc := client.New(c.ChatServerURL, c.APIKey)
	resp, err := rsc.ChatPost(ctx, models.ChatPostRequest{
		Message:   c.Question,
		TopK:      &c.TopK,
		Threshold: &c.Threshold,
	})
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println()
		for _, s := range resp.Sources {
			fmt.Printf("- %s (%.2f)\n", sourceName(s), s.Score)
		}
	}
	return nil
}

func sourceName(s models.SearchResult) string {
	if s.Filename != "" {
		return s.Filename
	}
	return s.DocID
}
