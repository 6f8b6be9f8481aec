package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openstack-archive/rst2bash/internal/script"
)

// targetItem wraps an assembled target for the list pane
type targetItem struct {
	target *script.Target
	text   string // rendered script, shown in the preview pane
}

func (i targetItem) Title() string { return i.target.Name + ".sh" }

func (i targetItem) Description() string {
	return fmt.Sprintf("%d blocks", i.target.Blocks())
}

func (i targetItem) FilterValue() string { return i.target.Name }

// model is the browse TUI: target list on the left, script preview on the
// right. Browsing is read-only; nothing here touches the output directory.
type model struct {
	list    list.Model
	preview viewport.Model
	items   []targetItem
	styles  *StyleManager

	width, height int
	focusPreview  bool
	ready         bool
}

// Run opens the browse view over the assembled targets and their rendered
// scripts.
func Run(targets []*script.Target, scripts map[string]string) error {
	styles := DefaultStyles()

	items := make([]targetItem, len(targets))
	listItems := make([]list.Item, len(targets))
	for i, t := range targets {
		items[i] = targetItem{target: t, text: scripts[t.Name+".sh"]}
		listItems[i] = items[i]
	}

	l := list.New(listItems, list.NewDefaultDelegate(), 0, 0)
	l.Title = "targets"
	l.Styles.Title = styles.Title
	l.SetShowHelp(false)
	l.SetStatusBarItemName("target", "targets")

	m := &model{
		list:   l,
		items:  items,
		styles: styles,
	}

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.focusPreview = !m.focusPreview
			return m, nil
		}
	}

	var cmds []tea.Cmd
	if m.focusPreview {
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var cmd tea.Cmd
		before := m.list.Index()
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
		if m.list.Index() != before {
			m.syncPreview()
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *model) layout() {
	listWidth := m.width / 3
	previewWidth := m.width - listWidth - 4 // borders
	paneHeight := m.height - 3

	m.list.SetSize(listWidth, paneHeight)
	m.preview = viewport.New(previewWidth, paneHeight)
	m.syncPreview()
}

func (m *model) syncPreview() {
	if item, ok := m.list.SelectedItem().(targetItem); ok {
		m.preview.SetContent(item.text)
		m.preview.GotoTop()
	}
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}
	listPane := m.styles.focusBorder(m.styles.ListPane, !m.focusPreview).Render(m.list.View())
	previewPane := m.styles.focusBorder(m.styles.Preview, m.focusPreview).Render(m.preview.View())
	help := m.styles.Dim.Render("tab: switch pane • /: filter • q: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane),
		help)
}
