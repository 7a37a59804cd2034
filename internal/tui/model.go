// Package tui is the terminal presenter: it drives the deck navigator from
// the keyboard and renders slides as markdown through glamour.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"talkdeck/internal/deck"
	"talkdeck/internal/editor"
	"talkdeck/internal/render"
	"talkdeck/internal/services"
	"talkdeck/internal/slides"
)

// Scope is the storage scope of the terminal presenter's editors
const Scope = "presenter"

const defaultWidth = 80

var (
	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	posStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57")).
			Bold(true).
			Padding(0, 1)
	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
)

// Options configure a presenter
type Options struct {
	Registry *slides.Registry
	Editors  *editor.Manager
	// Start is the zero-based slide to open. Negative starts at the first
	// slide, or at the saved position when Resume is set.
	Start    int
	Resume   bool
	Progress *services.ProgressStore
	// Style is a glamour style name. Empty picks one from the terminal background.
	Style  string
	Logger *zap.Logger
}

type runFinishedMsg struct {
	index int
	err   error
}

// Model is the bubbletea model of the presenter
type Model struct {
	reg      *slides.Registry
	port     *deck.MemoryPort
	nav      *deck.Navigator
	editors  *editor.Manager
	progress *services.ProgressStore
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	style    string
	width    int
	height   int

	current  int
	reveals  map[int]*render.Reveal
	runIndex int
	note     string
	quitting bool
}

// New creates a presenter positioned at the requested slide
func New(opts Options) (*Model, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.Editors == nil {
		return nil, errors.New("editor manager is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := opts.Start
	if start < 0 && opts.Resume && opts.Progress != nil {
		if p, ok := opts.Progress.Get(opts.Registry.Title()); ok && p.Total == opts.Registry.Len() {
			start = p.Index
		}
	}
	fragment := ""
	if start >= 0 {
		fragment = deck.Fragment(start)
	}

	port := deck.NewMemoryPort(fragment)
	nav := deck.New(opts.Registry.Len(), port)
	nav.Mount()
	port.Deliver()

	keys := newKeyMap()
	vp := viewport.New(defaultWidth, 20)
	vp.KeyMap = viewport.KeyMap{Up: keys.Up, Down: keys.Down}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		reg:      opts.Registry,
		port:     port,
		nav:      nav,
		editors:  opts.Editors,
		progress: opts.Progress,
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
		keys:     keys,
		help:     help.New(),
		viewport: vp,
		style:    opts.Style,
		width:    defaultWidth,
		current:  nav.Index(),
		reveals:  make(map[int]*render.Reveal),
		runIndex: -1,
	}
	if err := m.setWidth(defaultWidth); err != nil {
		cancel()
		return nil, err
	}
	return m, nil
}

// Index returns the zero-based index of the shown slide
func (m *Model) Index() int {
	return m.nav.Index()
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		if err := m.setWidth(msg.Width); err != nil {
			m.log.Warn("failed to resize renderer", zap.Int("width", msg.Width), zap.Error(err))
		}
		m.layout()
		return m, nil

	case runFinishedMsg:
		return m, m.finishRun(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
		case key.Matches(msg, m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last):
			m.navigate(browserKeys[msg.String()])
		case key.Matches(msg, m.keys.Run):
			return m, m.run()
		case key.Matches(msg, m.keys.Reset):
			m.reset()
		case key.Matches(msg, m.keys.Open):
			m.toggleOpen()
		case key.Matches(msg, m.keys.Reveal):
			m.toggleReveal()
		case key.Matches(msg, m.keys.Copy):
			m.copyCode()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Shutdown unmounts the current editor, saves the position and cancels runs
// in flight. It is safe to call more than once.
func (m *Model) Shutdown() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.leave(m.current)
	m.nav.Close()
	m.cancel()

	if m.progress != nil {
		if err := m.progress.Save(m.reg.Title(), m.nav.Index(), m.nav.Total()); err != nil {
			m.log.Warn("failed to save progress", zap.Error(err))
		}
	}
}

func (m *Model) navigate(browserKey string) {
	if !m.nav.HandleKey(browserKey) {
		return
	}
	// the echoed fragment change must not move the deck again
	m.port.Deliver()

	idx := m.nav.Index()
	if idx == m.current {
		return
	}
	m.leave(m.current)
	if m.runIndex == m.current {
		m.runIndex = -1
	}
	m.current = idx
	m.note = ""
	m.refresh()
	m.viewport.GotoTop()
}

// leave unmounts the slide's editor and collapses its reveal
func (m *Model) leave(index int) {
	slide, ok := m.reg.At(index)
	if !ok {
		return
	}
	m.editors.Unmount(Scope, slide)
	if r, ok := m.reveals[index]; ok {
		r.Reset()
	}
}

func (m *Model) session() (*editor.Session, bool) {
	slide, ok := m.reg.At(m.current)
	if !ok {
		return nil, false
	}
	return m.editors.Session(Scope, slide)
}

func (m *Model) run() tea.Cmd {
	sess, ok := m.session()
	if !ok {
		return nil
	}
	if m.runIndex >= 0 {
		m.note = editor.ErrRunInFlight.Error()
		return nil
	}
	index := m.current
	m.runIndex = index
	m.note = "Running..."
	ctx := m.ctx
	return func() tea.Msg {
		_, err := sess.Run(ctx)
		return runFinishedMsg{index: index, err: err}
	}
}

func (m *Model) finishRun(msg runFinishedMsg) tea.Cmd {
	if errors.Is(msg.err, editor.ErrDiscarded) || msg.index != m.current {
		return nil
	}
	m.runIndex = -1
	if msg.err != nil {
		m.note = msg.err.Error()
		return nil
	}
	m.note = ""
	m.refresh()
	m.viewport.GotoBottom()
	return nil
}

func (m *Model) reset() {
	sess, ok := m.session()
	if !ok {
		return
	}
	if _, err := sess.Reset(); err != nil {
		m.note = err.Error()
		return
	}
	m.note = "Reset to starter code"
	m.refresh()
}

func (m *Model) toggleOpen() {
	sess, ok := m.session()
	if !ok {
		return
	}
	state := sess.State()
	if state.Open {
		state = sess.Close()
	} else {
		state = sess.Open()
	}
	if state.Open {
		m.note = "Editor open"
	} else {
		m.note = "Editor closed"
	}
	m.refresh()
}

func (m *Model) toggleReveal() {
	slide, ok := m.reg.At(m.current)
	if !ok || render.Select(slide) != render.BranchInteractive {
		return
	}
	r, ok := m.reveals[m.current]
	if !ok {
		r = render.NewReveal(render.AfterPanelID(m.current))
		m.reveals[m.current] = r
	}
	if r.Revealed() {
		r.Reset()
		m.refresh()
		m.viewport.GotoTop()
		return
	}
	r.Simplify()
	m.refresh()
	// there is no expand animation in a terminal
	if req, ok := r.AnimationDone(); ok && req.Block == "end" {
		m.viewport.GotoBottom()
	}
}

// copyCode puts the slide's editor draft, or its static code, on the clipboard
func (m *Model) copyCode() {
	slide, ok := m.reg.At(m.current)
	if !ok {
		return
	}
	code := slide.Code
	if sess, ok := m.editors.Session(Scope, slide); ok {
		code = sess.State().Code
	} else if code == "" {
		code = slide.AfterCode
	}
	if code == "" {
		m.note = "No code on this slide"
		return
	}
	if err := clipboard.WriteAll(code); err != nil {
		m.log.Debug("clipboard unavailable", zap.Error(err))
		m.note = "Clipboard unavailable"
		return
	}
	m.note = "Copied code"
}

func (m *Model) setWidth(width int) error {
	if width <= 0 {
		width = defaultWidth
	}
	renderer, err := newRenderer(m.style, width)
	if err != nil {
		return err
	}
	m.width = width
	m.renderer = renderer
	m.viewport.Width = width
	m.help.Width = width
	m.refresh()
	return nil
}

func (m *Model) layout() {
	if m.height <= 0 {
		return
	}
	chrome := 1 + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Height = max(1, m.height-chrome)
}

func (m *Model) refresh() {
	slide, ok := m.reg.At(m.current)
	if !ok {
		return
	}
	view := render.View{Index: m.current, Total: m.reg.Len()}
	if r, ok := m.reveals[m.current]; ok {
		view.Revealed = r.Revealed()
	}
	if sess, ok := m.editors.Session(Scope, slide); ok {
		state := sess.Mount()
		view.Editor = &state
	}

	md := render.Markdown(slide, view)
	out, err := m.renderer.Render(md)
	if err != nil {
		m.log.Warn("failed to render slide", zap.String("id", slide.ID), zap.Error(err))
		out = md
	}
	m.viewport.SetContent(out)
}

func (m *Model) statusBar() string {
	slide, _ := m.reg.At(m.current)
	pos := posStyle.Render(fmt.Sprintf("%d / %d", m.current+1, m.reg.Len()))
	title := barStyle.Render(m.reg.Title())
	if slide.ID != "" {
		title = barStyle.Render(fmt.Sprintf("%s · %s", m.reg.Title(), slide.ID))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, pos, title)
	if m.note != "" {
		bar = lipgloss.JoinHorizontal(lipgloss.Top, bar, noteStyle.Render(m.note))
	}
	return bar
}

func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer, nil
}
