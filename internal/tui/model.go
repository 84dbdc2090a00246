// Package tui is the terminal front end: an Elm-style bubbletea program
// around a profile.Controller. Key presses edit the account name, enter
// starts a lookup, and the fetches run as a tea.Cmd so the screen keeps
// rendering Loading until the result message arrives.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joescharf/ghview/internal/profile"
)

// lookupDoneMsg carries the outcome of a controller Run.
type lookupDoneMsg struct {
	state profile.State
	err   error
}

// submitMsg asks the model to submit its current input.
type submitMsg struct{}

// Model is the bubbletea model for the lookup screen.
type Model struct {
	ctx        context.Context
	controller *profile.Controller
	keys       KeyMap
	styles     styles

	input      []rune
	state      profile.State
	autoSubmit bool
	width      int
}

// NewModel returns a model bound to controller. When initial is non-empty
// it is placed in the input and submitted as soon as the program starts.
func NewModel(ctx context.Context, controller *profile.Controller, initial string) Model {
	return Model{
		ctx:        ctx,
		controller: controller,
		keys:       DefaultKeyMap,
		styles:     defaultStyles(),
		input:      []rune(initial),
		state:      controller.Snapshot(),
		autoSubmit: initial != "",
	}
}

// Input returns the account name being edited.
func (m Model) Input() string { return string(m.input) }

// State returns the last controller snapshot the model rendered.
func (m Model) State() profile.State { return m.state }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.autoSubmit {
		return func() tea.Msg { return submitMsg{} }
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case submitMsg:
		return m.submit()

	case lookupDoneMsg:
		// A superseded result belongs to an older query; the newer one's
		// message is still on its way.
		if errors.Is(msg.err, profile.ErrSuperseded) {
			return m, nil
		}
		m.state = msg.state
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Clear):
		m.input = nil
		return m, nil
	}

	switch msg.Type {
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

// submit moves the controller to Loading synchronously and returns the
// command that performs the fetches.
func (m Model) submit() (tea.Model, tea.Cmd) {
	q, err := m.controller.Start(string(m.input))
	m.state = m.controller.Snapshot()
	if err != nil {
		return m, nil
	}

	ctx, controller := m.ctx, m.controller
	return m, func() tea.Msg {
		st, err := controller.Run(ctx, q)
		return lookupDoneMsg{state: st, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.Title.Render("GitHub Profile Viewer"))
	b.WriteString("\n\n")

	input := string(m.input)
	if input == "" {
		input = s.Muted.Render("Enter GitHub username")
	}
	inputStyle := s.Input
	if m.width > 4 {
		inputStyle = inputStyle.Width(m.width - 4)
	}
	b.WriteString(inputStyle.Render(input + "█"))
	b.WriteString("\n")

	label := "Fetch Profile"
	if m.state.Loading() {
		label = "Loading..."
	}
	b.WriteString(s.Button.Render(label))
	b.WriteString("\n")

	if m.state.Message != "" {
		b.WriteString("\n")
		b.WriteString(s.Error.Render(m.state.Message))
		b.WriteString("\n")
	}

	if p := m.state.Profile; p != nil {
		b.WriteString("\n")
		b.WriteString(s.Heading.Render(p.DisplayName()))
		b.WriteString("\n")
		if p.Bio != "" {
			b.WriteString(p.Bio)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %d | %s %d\n",
			s.Label.Render("Followers:"), p.Followers,
			s.Label.Render("Following:"), p.Following)
		b.WriteString(s.Link.Render(p.HTMLURL))
		b.WriteString("\n")
	}

	if len(m.state.Repositories) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Heading.Render("Repositories"))
		b.WriteString("\n")
		for _, r := range m.state.Repositories {
			fmt.Fprintf(&b, "  • %s  %s\n", r.Name, s.Muted.Render(r.HTMLURL))
			if r.Description != "" {
				fmt.Fprintf(&b, "    %s\n", r.Description)
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(s.Muted.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) helpLine() string {
	bindings := []key.Binding{m.keys.Submit, m.keys.Clear, m.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
