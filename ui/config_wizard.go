package ui

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agnosto/boosty-archiver/config"
)

// ConfigWizardModel is the first-run prompt that collects the minimal
// settings and writes config.toml.
type ConfigWizardModel struct {
	inputs  [4]textinput.Model
	cursor  int
	message string
	Saved   bool
}

const (
	wizardSaveLocation = iota
	wizardUserAgent
	wizardAuthToken
	wizardCookiesPath
)

func NewConfigWizardModel() *ConfigWizardModel {
	m := &ConfigWizardModel{}
	m.inputs[wizardSaveLocation] = textinput.New()
	m.inputs[wizardSaveLocation].Placeholder = "Save location (folder)"
	m.inputs[wizardSaveLocation].Focus()
	m.inputs[wizardUserAgent] = textinput.New()
	m.inputs[wizardUserAgent].Placeholder = "HTTP User-Agent"
	m.inputs[wizardAuthToken] = textinput.New()
	m.inputs[wizardAuthToken].Placeholder = "Auth token (optional, token.txt works too)"
	m.inputs[wizardAuthToken].EchoMode = textinput.EchoPassword
	m.inputs[wizardAuthToken].EchoCharacter = '•'
	m.inputs[wizardCookiesPath] = textinput.New()
	m.inputs[wizardCookiesPath].Placeholder = "Cookies file path (optional, Netscape format)"
	return m
}

func (m *ConfigWizardModel) Init() tea.Cmd { return textinput.Blink }

func (m *ConfigWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.message = "Setup cancelled."
			return m, tea.Quit
		case "enter":
			if m.cursor < len(m.inputs)-1 {
				m.cursor++
				m.inputs[m.cursor].Focus()
				return m, nil
			}
			if strings.TrimSpace(m.inputs[wizardSaveLocation].Value()) == "" {
				m.message = "Save location is required."
				return m, nil
			}
			cfg := config.CreateDefaultConfig()
			cfg.Options.SaveLocation = filepath.Clean(m.inputs[wizardSaveLocation].Value())
			cfg.Account.UserAgent = m.inputs[wizardUserAgent].Value()
			cfg.Account.AuthToken = m.inputs[wizardAuthToken].Value()
			cfg.Account.CookiesPath = m.inputs[wizardCookiesPath].Value()
			if err := config.SaveConfig(cfg); err != nil {
				m.message = err.Error()
				return m, nil
			}
			m.Saved = true
			return m, tea.Quit
		case "tab":
			m.cursor = (m.cursor + 1) % len(m.inputs)
			for i := range m.inputs {
				if i == m.cursor {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
		}
	}

	for i := range m.inputs {
		m.inputs[i], _ = m.inputs[i].Update(msg)
	}
	return m, nil
}

func (m *ConfigWizardModel) View() string {
	v := "First-time minimal setup: create config.toml\n\n"
	v += "Windows: use forward slashes (C:/path/to/dir) or right-click to paste then escape backslashes (C:\\\\path\\\\to\\\\dir).\n\n"
	for i := range m.inputs {
		v += m.inputs[i].View() + "\n"
	}
	v += "\n"
	if m.message != "" {
		v += m.message + "\n"
	}
	v += "Press Enter to save, Tab to switch, Esc to quit. More settings live in config.toml directly.\n"
	return v
}
