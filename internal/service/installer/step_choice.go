package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ChoiceStep is a single-select list. apply receives the chosen index.
type ChoiceStep struct {
	title   string
	choices []string
	cursor  int
	apply   func(state *InstallState, choice int)
}

func NewProviderStep() Step {
	providers := []string{"openrouter", "openai", "anthropic", "gemini", "ollama", "custom"}
	return &ChoiceStep{
		title:   "Select the LLM provider:",
		choices: []string{"OpenRouter", "OpenAI", "Anthropic", "Gemini", "Ollama", "Custom (OpenAI compatible)"},
		apply: func(state *InstallState, i int) {
			state.LLM.Provider = providers[i]
		},
	}
}

func NewEmbeddingProviderStep() Step {
	providers := []string{"ollama", "openai", "gemini", "hash"}
	return &ChoiceStep{
		title:   "Select the embedding provider:",
		choices: []string{"Ollama (bge-m3)", "OpenAI", "Gemini", "Offline hashing (testing only)"},
		apply: func(state *InstallState, i int) {
			state.Embedding.Provider = providers[i]
		},
	}
}

func NewChannelStep() Step {
	return &ChoiceStep{
		title:   "Enable the Telegram bot next to the HTTP API?",
		choices: []string{"HTTP only", "HTTP + Telegram"},
		apply: func(state *InstallState, i int) {
			state.App.EnableTelegram = i == 1
		},
	}
}

func (s *ChoiceStep) Init() tea.Cmd {
	return nil
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			s.apply(state, s.cursor)
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + "\n\n")
	for i, choice := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", choice)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", choice)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
