package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/lotl-ai/lotlchat/client"
	"github.com/lotl-ai/lotlchat/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type ChatCommand struct {
	ChatServerURL string  `help:"The URL of the chat server." env:"CHAT_SERVER_URL" default:"http://localhost:8004"`
	APIKey        string  `help:"The shared secret for the chat server." env:"CHAT_API_SECRET" default:""`
	TopK          int     `help:"Number of context snippets to retrieve." env:"TOP_K" default:"5"`
	Threshold     float64 `help:"Minimum similarity score." env:"SIM_THRESHOLD" default:"0.2"`
	LogLevel      string  `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

type chatRole string

const (
	roleHuman   chatRole = "human"
	roleAI      chatRole = "ai"
	roleSources chatRole = "sources"
)

type chatMessage struct {
	Role    chatRole
	Content string
}

func (c ChatCommand) Run(ctx context.Context) (err error) {
	rsc := client.New(c.ChatServerURL, c.APIKey)

	toLLM := make(chan string)
	fromLLM := make(chan []chatMessage)
	errors := make(chan error)
	defer close(toLLM)
	defer close(fromLLM)
	defer close(errors)

	go func() {
		var history []chatMessage
		snapshot := func() []chatMessage {
			return append([]chatMessage(nil), history...)
		}
		for q := range toLLM {
			history = append(history, chatMessage{Role: roleHuman, Content: q})
			aiIndex := -1
			buf := new(bytes.Buffer)

			onMeta := func(meta models.StreamMeta) error {
				if len(meta.Sources) > 0 {
					names := make([]string, 0, len(meta.Sources))
					for _, s := range meta.Sources {
						name := s.Filename
						if name == "" {
							name = s.DocID
						}
						names = append(names, fmt.Sprintf("%s (%.2f)", name, s.Score))
					}
					history = append(history, chatMessage{Role: roleSources, Content: strings.Join(names, ", ")})
				}
				history = append(history, chatMessage{Role: roleAI})
				aiIndex = len(history) - 1
				fromLLM <- snapshot()
				return nil
			}
			f := func(ctx context.Context, chunk []byte) error {
				if aiIndex < 0 {
					history = append(history, chatMessage{Role: roleAI})
					aiIndex = len(history) - 1
				}
				if _, err := buf.Write(chunk); err != nil {
					return err
				}
				history[aiIndex].Content = strings.TrimSpace(buf.String())
				fromLLM <- snapshot()
				return nil
			}
			if err := rsc.Stream(ctx, q, c.TopK, c.Threshold, onMeta, f); err != nil {
				errors <- err
				return
			}
		}
	}()

	p := tea.NewProgram(newChatModel(ctx, toLLM, fromLLM, errors))
	if _, err = p.Run(); err != nil {
		return err
	}
	return nil
}

// Dracula color scheme.
var (
	Background  = lipgloss.Color("#282a36")
	CurrentLine = lipgloss.Color("#44475a")
	Selection   = lipgloss.Color("#44475a")
	Foreground  = lipgloss.Color("#f8f8f2")
	Comment     = lipgloss.Color("#6272a4")
	Cyan        = lipgloss.Color("#8be9fd")
	Green       = lipgloss.Color("#50fa7b")
	Orange      = lipgloss.Color("#ffb86c")
	Pink        = lipgloss.Color("#ff79c6")
	Purple      = lipgloss.Color("#bd93f9")
	Red         = lipgloss.Color("#ff5555")
	Yellow      = lipgloss.Color("#f1fa8c")
)

var headerStyle = lipgloss.NewStyle().Background(CurrentLine).Foreground(Purple).Bold(true).Margin(10).Padding(1).PaddingTop(0)

var header = `
 ___      _______  _______  ___
|   |    |       ||       ||   |
|   |    |   _   ||_     _||   |
|   |    |  | |  |  |   |  |   |
|   |___ |  |_|  |  |   |  |   |___
|       ||       |  |   |  |       |
|_______||_______|  |___|  |_______|
`

type chatModel struct {
	viewport viewport.Model
	textarea textarea.Model
	err      error
	ctx      context.Context

	toLLM   chan string
	fromLLM chan []chatMessage
	errors  chan error
}

func newChatModel(ctx context.Context, toLLM chan string, fromLLM chan []chatMessage, errors chan error) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 280

	ta.SetHeight(3)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)
	vp.SetContent(headerStyle.Render(header))

	ta.KeyMap.InsertNewline.SetEnabled(false)

	return chatModel{
		ctx:      ctx,
		textarea: ta,
		viewport: vp,
		err:      nil,
		fromLLM:  fromLLM,
		toLLM:    toLLM,
		errors:   errors,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.subscribeToFromLLM(),
		m.subscribeToErrors(),
	)
}

func (m chatModel) subscribeToFromLLM() tea.Cmd {
	return func() tea.Msg {
		select {
		case x := <-m.fromLLM:
			return x
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m chatModel) subscribeToErrors() tea.Cmd {
	return func() tea.Msg {
		select {
		case x := <-m.errors:
			return x
		case <-m.ctx.Done():
			return nil
		}
	}
}

var roleToStyle = map[chatRole]lipgloss.Style{
	roleSources: lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).MaxWidth(90).Background(Background).Foreground(Green),
	roleHuman:   lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Pink),
	roleAI:      lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Cyan),
}

var roleToIcon = map[chatRole]string{
	roleSources: "📚",
	roleHuman:   "🥷",
	roleAI:      "✨",
}

func formatMessage(msg chatMessage) string {
	style, ok := roleToStyle[msg.Role]
	if !ok {
		return msg.Content
	}
	icon, ok := roleToIcon[msg.Role]
	if !ok {
		icon = "🤷"
	}
	wrapped := wordwrap.String(strings.TrimSpace(icon+" "+msg.Content), 80)
	return style.Render(wrapped)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case error:
		m.err = msg
		return m, m.subscribeToErrors()
	case []chatMessage:
		var sb strings.Builder
		for _, cm := range msg {
			sb.WriteString(formatMessage(cm))
			sb.WriteString("\n")
		}
		m.viewport.SetContent(sb.String())
		m.viewport.GotoBottom()
		return m, m.subscribeToFromLLM()
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.textarea.Height() - 3
		m.textarea.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			v := m.textarea.Value()
			if v == "" {
				// Don't send empty messages.
				return m, nil
			}
			m.textarea.Reset()
			m.toLLM <- v
			return m, nil
		default:
			// Send all other keypresses to the textarea.
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

	case cursor.BlinkMsg:
		// Textarea should also process cursor blinks.
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m chatModel) View() string {
	return fmt.Sprintf("%s\n\n%s",
		m.viewport.View(),
		m.textarea.View(),
	) + "\n\n"
}
