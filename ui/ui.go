package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fanpei91/hostsed/editor"
	"github.com/fanpei91/hostsed/hosts"
	"github.com/fanpei91/hostsed/ipdb"
	"github.com/sirupsen/logrus"
)

const loadingRefresh = 100 * time.Millisecond

type searchMsg struct {
	seq int
}

type renewedMsg struct {
	id  int
	err error
}

type alertMsg editor.Alert

type loadedMsg struct {
	err error
}

type loadingTickMsg struct{}

// Loader fills the editor's store. It runs once when the program starts.
type Loader func(ctx context.Context) error

type Model struct {
	ctx      context.Context
	editor   *editor.Editor
	alerts   editor.ChanNotifier
	loader   Loader
	input    textinput.Model
	debounce time.Duration

	seq     int
	query   string
	entries []*hosts.Mapping
	cursor  int
	busy    map[int]bool
	preview bool
	loading bool

	status      string
	statusLevel logrus.Level

	width  int
	height int
}

func New(ctx context.Context, e *editor.Editor, alerts editor.ChanNotifier, loader Loader, debounce time.Duration) Model {
	input := textinput.New()
	input.Placeholder = "search domains"
	input.Prompt = "search> "
	input.Focus()

	m := Model{
		ctx:      ctx,
		editor:   e,
		alerts:   alerts,
		loader:   loader,
		input:    input,
		debounce: debounce,
		busy:     make(map[int]bool),
		loading:  loader != nil,
		height:   24,
		width:    80,
	}
	m.refresh()
	return m
}

// Run starts the interactive editor and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForAlert()}
	if m.loader != nil {
		cmds = append(cmds, m.load(), loadingTick())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForAlert() tea.Cmd {
	if m.alerts == nil {
		return nil
	}
	ch := m.alerts
	return func() tea.Msg {
		return alertMsg(<-ch)
	}
}

func (m Model) load() tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: loader(ctx)}
	}
}

func loadingTick() tea.Cmd {
	return tea.Tick(loadingRefresh, func(time.Time) tea.Msg {
		return loadingTickMsg{}
	})
}

func (m Model) renew(id int) tea.Cmd {
	e, ctx := m.editor, m.ctx
	return func() tea.Msg {
		return renewedMsg{id: id, err: e.Renew(ctx, id)}
	}
}

func (m *Model) refresh() {
	m.entries = m.editor.Search(m.query)
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (*hosts.Mapping, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return nil, false
	}
	return m.entries[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case searchMsg:
		if msg.seq == m.seq {
			m.query = m.input.Value()
			m.refresh()
		}
		return m, nil

	case renewedMsg:
		delete(m.busy, msg.id)
		m.refresh()
		return m, nil

	case alertMsg:
		m.status, m.statusLevel = msg.Message, msg.Level
		return m, m.waitForAlert()

	case loadingTickMsg:
		if !m.loading {
			return m, nil
		}
		m.refresh()
		return m, loadingTick()

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status, m.statusLevel = fmt.Sprintf("failed to load: %v", msg.err), logrus.ErrorLevel
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "ctrl+k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "ctrl+j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		return m, nil

	case "ctrl+d":
		if sel, ok := m.selected(); ok {
			m.editor.ToggleDeleted(sel.ID)
			m.refresh()
		}
		return m, nil

	case "ctrl+r":
		sel, ok := m.selected()
		if !ok || m.busy[sel.ID] {
			return m, nil
		}
		m.busy[sel.ID] = true
		return m, m.renew(sel.ID)

	case "ctrl+p":
		m.preview = !m.preview
		return m, nil

	case "ctrl+s":
		m.editor.Save()
		m.status, m.statusLevel = "saving...", logrus.InfoLevel
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	m.seq++
	seq := m.seq
	search := tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchMsg{seq: seq}
	})
	return m, tea.Batch(cmd, search)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hostsed"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	body := m.height - 7
	if body < 3 {
		body = 3
	}

	if m.preview {
		b.WriteString(m.viewPreview(body))
	} else {
		b.WriteString(m.viewList(body))
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • ctrl+d delete/restore • ctrl+r renew • ctrl+p preview • ctrl+s save • esc quit"))
	return b.String()
}

func (m Model) viewList(rows int) string {
	if len(m.entries) == 0 {
		if m.loading {
			return helpStyle.Render("loading...")
		}
		return helpStyle.Render("no entries")
	}

	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := start + rows
	if end > len(m.entries) {
		end = len(m.entries)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.viewRow(m.entries[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewRow(e *hosts.Mapping, selected bool) string {
	text := fmt.Sprintf("%-39s %s", e.IP, strings.Join(e.Domains, " "))
	if e.IsDeleted() {
		text = deletedStyle.Render(text)
	}

	suffix := scopeStyle.Render("[" + ipdb.Scope(e.IP) + "]")
	if m.busy[e.ID] {
		suffix += scopeStyle.Render(" renewing...")
	} else if e.IsDeleted() {
		suffix += scopeStyle.Render(" deleted")
	}

	if selected {
		return selectedStyle.Render("> " + text + " " + suffix)
	}
	return rowStyle.Render("  " + text + " " + suffix)
}

func (m Model) viewPreview(rows int) string {
	lines := strings.Split(strings.TrimRight(m.editor.Preview(), "\n"), "\n")
	if len(lines) > rows-2 && rows > 2 {
		lines = append(lines[:rows-3], fmt.Sprintf("... %d more lines", len(lines)-rows+3))
	}
	return previewStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewStatus() string {
	st := m.editor.Store().Stats()
	summary := fmt.Sprintf("%d lines • %d mappings • %d deleted", st.Total, st.Mappings, st.Deleted)
	if m.loading {
		summary += " • loading"
	}
	if m.status == "" {
		return helpStyle.Render(summary)
	}

	style := infoStyle
	if m.statusLevel <= logrus.WarnLevel {
		style = errorStyle
	}
	return helpStyle.Render(summary) + style.Render(m.status)
}
