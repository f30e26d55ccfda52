// Package repl is the interactive shell: a bubbletea program wrapping a
// Session, with a prompt, scrollback viewport, and input history.
package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type App struct {
	session *Session

	input    textinput.Model
	view     viewport.Model
	ready    bool
	content  strings.Builder
	history  []string
	histPos  int
	quitting bool
}

func NewApp(session *Session) *App {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("bookgrep> ")
	ti.Placeholder = "help"
	ti.Focus()

	return &App{
		session: session,
		input:   ti,
	}
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !a.ready {
			a.view = viewport.New(msg.Width, msg.Height-3)
			a.ready = true
			a.appendOutput(a.banner())
		} else {
			a.view.Width = msg.Width
			a.view.Height = msg.Height - 3
		}
		a.input.Width = msg.Width - len("bookgrep> ") - 1
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			a.quitting = true
			return a, tea.Quit
		case "enter":
			return a.runLine()
		case "up":
			if len(a.history) > 0 && a.histPos > 0 {
				a.histPos--
				a.input.SetValue(a.history[a.histPos])
				a.input.CursorEnd()
			}
			return a, nil
		case "down":
			if a.histPos < len(a.history)-1 {
				a.histPos++
				a.input.SetValue(a.history[a.histPos])
				a.input.CursorEnd()
			} else {
				a.histPos = len(a.history)
				a.input.SetValue("")
			}
			return a, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			a.view, cmd = a.view.Update(msg)
			return a, cmd
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) runLine() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(a.input.Value())
	a.input.SetValue("")
	if line == "" {
		return a, nil
	}

	a.history = append(a.history, line)
	a.histPos = len(a.history)

	if line == "quit" || line == "exit" {
		a.quitting = true
		return a, tea.Quit
	}

	a.appendOutput(promptStyle.Render("bookgrep> ") + line)
	out, err := a.session.Run(context.Background(), line)
	if err != nil {
		a.appendOutput(errorStyle.Render("error: " + err.Error()))
	} else if out != "" {
		a.appendOutput(out)
	}
	return a, nil
}

func (a *App) appendOutput(s string) {
	a.content.WriteString(s)
	a.content.WriteByte('\n')
	a.view.SetContent(a.content.String())
	a.view.GotoBottom()
}

func (a *App) banner() string {
	info := a.session.Book.Info()
	return titleStyle.Render("bookgrep") + " " +
		dimStyle.Render(fmt.Sprintf("— %s (%d accounts, %d transactions). Type help.",
			info.Path, info.AccountCount, info.TransactionCount))
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if !a.ready {
		return "loading..."
	}
	return a.view.View() + "\n\n" + a.input.View()
}

// Run starts the interactive program and blocks until it exits.
func Run(session *Session) error {
	p := tea.NewProgram(NewApp(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
