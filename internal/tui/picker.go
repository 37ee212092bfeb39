package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"ctxport/internal/config"
	"ctxport/internal/workspace"
)

// workspaceItem implements the list.Item interface for workspace candidates.
type workspaceItem struct {
	name     string
	path     string
	exists   bool
	detected bool
}

func (i workspaceItem) Title() string {
	if i.detected {
		return i.name + " " + statusOkStyle.Render("(detected)")
	}
	return i.name
}

func (i workspaceItem) Description() string {
	var parts []string
	parts = append(parts, i.path)
	if !i.exists {
		parts = append(parts, statusWarnStyle.Render("✗ missing"))
	}
	return strings.Join(parts, "  ")
}

func (i workspaceItem) FilterValue() string {
	return i.name + " " + i.path
}

type pickerModel struct {
	list   list.Model
	choice string
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(workspaceItem); ok {
				m.choice = item.path
			}
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return appStyle.Render(m.list.View()) + helpStyle.Render("  enter: choose  /: filter  q: quit")
}

// candidates assembles the pick list: configured aliases first, then the
// detected root when it is not already present.
func candidates(entries []config.WorkspaceEntry, detected *workspace.DetectionResult) []list.Item {
	items := make([]list.Item, 0, len(entries)+1)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		items = append(items, workspaceItem{name: e.Name, path: e.Path, exists: e.Exists})
		seen[e.Path] = true
	}
	if detected != nil && detected.Root != "" && !seen[detected.Root] {
		items = append(items, workspaceItem{
			name:     string(detected.Method),
			path:     detected.Root,
			exists:   true,
			detected: true,
		})
	}
	return items
}

// PickWorkspace shows an interactive picker over the configured aliases plus
// the detection result. It returns the chosen path, empty when the user
// quits without choosing.
func PickWorkspace(entries []config.WorkspaceEntry, detected *workspace.DetectionResult) (string, error) {
	items := candidates(entries, detected)
	if len(items) == 0 {
		return "", fmt.Errorf("no workspaces to choose from")
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select workspace"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)

	program := tea.NewProgram(pickerModel{list: l}, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return "", err
	}
	return final.(pickerModel).choice, nil
}
