package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alphamail/chatbot/internal/providers/llm"
)

// ModelStep lists the models of the chosen provider.
type ModelStep struct {
	list     list.Model
	loading  bool
	fetching bool
	err      error
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select the completion model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{
		list:    l,
		loading: true,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return nil
}

func (s *ModelStep) fetch(state *InstallState) tea.Cmd {
	cfg := state.LLM
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		p, err := llm.NewProvider(ctx, &cfg)
		if err != nil {
			return errMsg(err)
		}
		models, err := p.Models(ctx)
		if err != nil {
			return errMsg(err)
		}

		items := make([]list.Item, 0, len(models))
		for _, mod := range models {
			desc := "ID: " + mod.ID
			if mod.ContextLength > 0 {
				desc = fmt.Sprintf("ID: %s | Context: %d", mod.ID, mod.ContextLength)
			}
			items = append(items, item{id: mod.ID, title: firstNonEmpty(mod.Name, mod.ID), desc: desc})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.loading && !s.fetching {
		s.fetching = true
		return s, s.fetch(state)
	}

	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil

	case tea.KeyMsg:
		if s.err != nil {
			if msg.String() == "enter" {
				s.err = nil
				s.loading = true
			}
			return s, nil
		}

		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.LLM.Model = i.id
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nCheck the API key and the network connection.\n\n(press enter to retry, ctrl+c to quit)\n"
	}
	if s.loading {
		return fmt.Sprintf("Fetching models from %s...\n", state.LLM.Provider)
	}
	return s.list.View()
}
