package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/karaokepi/internal/logtail"
)

const (
	defaultRefresh = 2 * time.Second
	defaultLimit   = 2000
)

// Options configure the log viewer.
type Options struct {
	Path string
	// Marker starts a new session in the log.
	Marker string
	// Session shows only the latest session initially.
	Session bool
	Limit   int
	Refresh time.Duration
	Theme   Theme
}

// Model is the bubbletea model of the log viewer.
type Model struct {
	opts   Options
	keys   keyMap
	styles Styles

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	lines       []string
	follow      bool
	session     bool
	lastRefresh time.Time
	err         error
}

type tickMsg time.Time

type linesMsg struct {
	lines []string
	err   error
	at    time.Time
}

// New builds a viewer model.
func New(opts Options) Model {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	if opts.Theme.Name == "" {
		opts.Theme = DefaultTheme()
	}
	return Model{
		opts:    opts,
		keys:    DefaultKeyMap(),
		styles:  opts.Theme.Styles(),
		follow:  true,
		session: opts.Session,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tickCmd(m.opts.Refresh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.innerWidth(), m.innerHeight())
			m.ready = true
		}
		m.viewport.Width = m.innerWidth()
		m.viewport.Height = m.innerHeight()
		m.refreshContent()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadCmd(), tickCmd(m.opts.Refresh))

	case linesMsg:
		m.err = msg.err
		if msg.err == nil {
			m.lines = msg.lines
			m.lastRefresh = msg.at
		}
		m.refreshContent()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow && m.ready {
			m.viewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleScope):
		m.session = !m.session
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadCmd()
	}

	if !m.ready {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.follow = false
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfViewDown()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := m.styles.Title.Render(m.title())
	box := m.styles.Frame.
		Width(m.width - 2).
		Height(m.innerHeight()).
		Render(m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, title, box, m.statusLine())
}

func (m Model) title() string {
	scope := "all output"
	if m.session {
		scope = "latest session"
	}
	return fmt.Sprintf(" %s (%s)", m.opts.Path, scope)
}

func (m Model) statusLine() string {
	var parts []string
	if m.err != nil {
		parts = append(parts, m.styles.Danger.Render(m.err.Error()))
	}
	follow := "off"
	if m.follow {
		follow = "on"
	}
	parts = append(parts, fmt.Sprintf("%d lines", len(m.lines)), "follow "+follow)
	if !m.lastRefresh.IsZero() {
		parts = append(parts, "updated "+m.lastRefresh.Format("15:04:05"))
	}
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.Status.Render(strings.Join(parts, " · "))
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(Render(m.lines, m.opts.Marker, m.styles))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) innerWidth() int {
	return max(m.width-4, 10)
}

// Title, frame borders, and status line take four rows.
func (m Model) innerHeight() int {
	return max(m.height-4, 3)
}

func (m Model) loadCmd() tea.Cmd {
	path, marker, limit, session := m.opts.Path, m.opts.Marker, m.opts.Limit, m.session
	return func() tea.Msg {
		var lines []string
		var err error
		if session && marker != "" {
			lines, err = logtail.Session(path, marker, limit)
		} else {
			lines, err = logtail.Read(path, limit)
		}
		return linesMsg{lines: lines, err: err, at: time.Now()}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Render styles each line by severity, highlighting session markers.
func Render(lines []string, marker string, styles Styles) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if marker != "" && strings.HasPrefix(line, marker) {
			b.WriteString(styles.Marker.Render(line))
			continue
		}
		b.WriteString(styles.ForSeverity(logtail.Classify(line)).Render(line))
	}
	return b.String()
}

// Run starts the viewer program.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
