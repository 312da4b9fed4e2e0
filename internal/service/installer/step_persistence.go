package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alphamail/chatbot/internal/config"
	"github.com/alphamail/chatbot/pkg/env"
)

// SaveEnvStep writes the collected configuration into the runtime .env.
type SaveEnvStep struct {
	runtimePath string
	err         error
	saved       bool
}

func NewSaveEnvStep(runtimePath string) Step {
	return &SaveEnvStep{runtimePath: runtimePath}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if err := SaveEnv(s.runtimePath, state); err != nil {
		s.err = err
		return s, nil
	}
	s.saved = true
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}

// SaveEnv writes state to <runtimePath>/.env. Settings already in the file
// that the wizard did not ask about are kept.
func SaveEnv(runtimePath string, state *InstallState) error {
	if err := os.MkdirAll(runtimePath, 0o755); err != nil {
		return fmt.Errorf("create runtime directory: %w", err)
	}

	content, err := state.render()
	if err != nil {
		return fmt.Errorf("render .env: %w", err)
	}

	envPath := config.EnvFilePath(runtimePath)
	existing, err := os.ReadFile(envPath)
	switch {
	case err == nil:
		content = env.Merge(string(existing), content)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read %s: %w", envPath, err)
	}

	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", envPath, err)
	}
	return nil
}
