// Package tui provides a Bubble Tea terminal user interface for the launcher.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/synthlab/launcher/internal/auth"
	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/download"
	"github.com/synthlab/launcher/internal/errs"
	"github.com/synthlab/launcher/internal/launcher"
	"github.com/synthlab/launcher/internal/task"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE28B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFE66D"))
)

// State represents the current UI state.
type State int

const (
	StateLoadingManifest State = iota
	StateSelectVersion
	StateResolving
	StateLogin
	StateDownloading
	StateReady
	StateError
)

// Model is the Bubble Tea model for the TUI.
//
// The model is the host side of the task contract: every outstanding
// handle is polled on a fixed tick and awaited exactly once after its
// poll reports terminal.
type Model struct {
	state    State
	spinner  spinner.Model
	session  *launcher.State
	settings *config.Settings

	// Outstanding handles, polled by tick. Nil when not in flight.
	manifestTask *task.Task[task.Unit]
	resolveTask  *task.Task[task.Unit]
	codeTask     *task.Task[*auth.DeviceCode]
	signInTask   *task.Task[int]
	assetsTask   *task.Task[task.Unit]
	libsTask     *task.Task[string]
	jarTask      *task.Task[string]

	assetsCounter *task.Counter
	libsCounter   *task.Counter
	jarCounter    *task.Counter

	assetsBar progress.Model
	libsBar   progress.Model
	jarBar    progress.Model

	pipelineErrs []error
	pending      int // download pipelines still running

	cursor     int
	deviceCode *auth.DeviceCode
	launchCmd  []string
	err        error

	width  int
	height int
}

// NewModel creates a new TUI model driving the given session.
func NewModel(session *launcher.State) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE28B"))

	newBar := func() progress.Model {
		p := progress.New(progress.WithDefaultGradient())
		p.Width = 50
		return p
	}

	return Model{
		state:     StateLoadingManifest,
		spinner:   sp,
		session:   session,
		settings:  session.Settings(),
		assetsBar: newBar(),
		libsBar:   newBar(),
		jarBar:    newBar(),

		// Manifest resolution starts with the session's first frame.
		manifestTask: session.ResolveManifest(),
	}
}

// Init begins the spinner and the polling tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

// TickMsg drives one polling round over all outstanding handles.
type TickMsg struct{}

func (m Model) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		width := msg.Width - 20
		if width > 80 {
			width = 80
		}
		if width < 20 {
			width = 20
		}
		m.assetsBar.Width = width
		m.libsBar.Width = width
		m.jarBar.Width = width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		cmds = append(cmds, m.pollHandles()...)
		cmds = append(cmds, m.tick())

	case progress.FrameMsg:
		for _, bar := range []*progress.Model{&m.assetsBar, &m.libsBar, &m.jarBar} {
			model, cmd := bar.Update(msg)
			*bar = model.(progress.Model)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancelAll()
		return m, tea.Quit

	case "esc":
		switch m.state {
		case StateSelectVersion:
			return m, tea.Quit
		case StateResolving:
			if m.resolveTask != nil {
				m.resolveTask.Cancel()
			}
		case StateLogin:
			if m.signInTask != nil {
				m.signInTask.Cancel()
			}
			m.state = StateSelectVersion
		case StateDownloading:
			m.cancelDownloads()
		}

	case "up", "k":
		if m.state == StateSelectVersion && m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.state == StateSelectVersion {
			if n, err := m.session.ManifestLen(); err == nil && m.cursor < n-1 {
				m.cursor++
			}
		}

	case "enter":
		if m.state == StateSelectVersion {
			// Single-flight: a new selection supersedes any in-flight
			// resolution.
			if m.resolveTask != nil {
				m.resolveTask.Cancel()
			}
			m.resolveTask = m.session.ResolveVersion(m.cursor)
			m.state = StateResolving
			return m, m.spinner.Tick
		}

	case "a":
		if m.state == StateSelectVersion && m.codeTask == nil && m.signInTask == nil {
			m.codeTask = m.session.RequestDeviceCode()
		}

	case "q":
		if m.state == StateReady || m.state == StateError {
			return m, tea.Quit
		}

	case "r":
		if m.state == StateError {
			m.err = nil
			m.pipelineErrs = nil
			m.state = StateSelectVersion
		}
	}

	return m, nil
}

// pollHandles is one round of the host polling loop: each terminal
// handle is awaited once and its result folded into the model.
func (m *Model) pollHandles() []tea.Cmd {
	var cmds []tea.Cmd

	if m.manifestTask != nil && m.manifestTask.Poll() {
		_, err := m.manifestTask.Await()
		m.manifestTask = nil
		if err != nil {
			m.fail(err)
		} else {
			m.state = StateSelectVersion
		}
	}

	if m.resolveTask != nil && m.resolveTask.Poll() {
		_, err := m.resolveTask.Await()
		m.resolveTask = nil
		switch {
		case errs.IsCancelled(err):
			// Superseded or abandoned selection; never an error.
			if m.state == StateResolving {
				m.state = StateSelectVersion
			}
		case err != nil:
			m.fail(err)
		default:
			cmds = append(cmds, m.startDownloads()...)
		}
	}

	if m.codeTask != nil && m.codeTask.Poll() {
		dc, err := m.codeTask.Await()
		m.codeTask = nil
		if err != nil {
			m.fail(err)
		} else {
			m.deviceCode = dc
			m.signInTask = m.session.PollDeviceAuth()
			m.state = StateLogin
		}
	}

	if m.signInTask != nil && m.signInTask.Poll() {
		_, err := m.signInTask.Await()
		m.signInTask = nil
		m.deviceCode = nil
		switch {
		case errs.IsCancelled(err):
			m.state = StateSelectVersion
		case err != nil:
			m.fail(err)
		default:
			m.state = StateSelectVersion
		}
	}

	cmds = append(cmds, m.pollDownloads()...)
	return cmds
}

// startDownloads launches the three pipelines in parallel.
func (m *Model) startDownloads() []tea.Cmd {
	m.assetsTask, m.assetsCounter = download.Assets(m.session)
	m.libsTask, m.libsCounter = download.Libraries(m.session)
	m.jarTask, m.jarCounter = download.Jar(m.session)
	m.pending = 3
	m.pipelineErrs = nil
	m.state = StateDownloading
	return []tea.Cmd{m.spinner.Tick}
}

// pollDownloads drains the pipelines independently; launch is gated on
// all three succeeding, and one failure never cancels the others.
func (m *Model) pollDownloads() []tea.Cmd {
	var cmds []tea.Cmd

	if m.assetsTask != nil && m.assetsTask.Poll() {
		_, err := m.assetsTask.Await()
		m.assetsTask = nil
		m.finishPipeline(err)
	}
	if m.libsTask != nil && m.libsTask.Poll() {
		_, err := m.libsTask.Await()
		m.libsTask = nil
		m.finishPipeline(err)
	}
	if m.jarTask != nil && m.jarTask.Poll() {
		_, err := m.jarTask.Await()
		m.jarTask = nil
		m.finishPipeline(err)
	}

	if m.state == StateDownloading {
		for counter, bar := range map[*task.Counter]*progress.Model{
			m.assetsCounter: &m.assetsBar,
			m.libsCounter:   &m.libsBar,
			m.jarCounter:    &m.jarBar,
		} {
			if counter == nil {
				continue
			}
			if percent, ok := counter.Percent(); ok {
				cmds = append(cmds, bar.SetPercent(percent))
			}
		}
	}

	return cmds
}

func (m *Model) finishPipeline(err error) {
	m.pending--
	if err != nil {
		m.pipelineErrs = append(m.pipelineErrs, err)
	}
	if m.pending > 0 {
		return
	}

	for _, err := range m.pipelineErrs {
		if !errs.IsCancelled(err) {
			m.fail(err)
			return
		}
	}
	if len(m.pipelineErrs) > 0 {
		// Cancelled by the user; go back to selection.
		m.state = StateSelectVersion
		return
	}

	if m.session.AccountsLen() > 0 {
		if cmd, err := m.session.LaunchCommand(0, 0); err == nil {
			m.launchCmd = cmd
		}
	}
	m.state = StateReady
}

func (m *Model) fail(err error) {
	m.err = err
	m.state = StateError
}

func (m *Model) cancelDownloads() {
	if m.assetsTask != nil {
		m.assetsTask.Cancel()
	}
	if m.libsTask != nil {
		m.libsTask.Cancel()
	}
	if m.jarTask != nil {
		m.jarTask.Cancel()
	}
}

func (m *Model) cancelAll() {
	for _, t := range []*task.Task[task.Unit]{m.manifestTask, m.resolveTask, m.assetsTask} {
		if t != nil {
			t.Cancel()
		}
	}
	if m.libsTask != nil {
		m.libsTask.Cancel()
	}
	if m.jarTask != nil {
		m.jarTask.Cancel()
	}
	if m.codeTask != nil {
		m.codeTask.Cancel()
	}
	if m.signInTask != nil {
		m.signInTask.Cancel()
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Synthlab Launcher"))
	b.WriteString("\n")

	switch m.state {
	case StateLoadingManifest:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Fetching version manifest..."))
	case StateSelectVersion:
		b.WriteString(m.viewSelect())
	case StateResolving:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Resolving version metadata..."))
	case StateLogin:
		b.WriteString(m.viewLogin())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateReady:
		b.WriteString(m.viewReady())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) viewSelect() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Select a version:"))
	b.WriteString("\n\n")

	n, err := m.session.ManifestLen()
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	// Window of ten entries around the cursor.
	start := m.cursor - 4
	if start < 0 {
		start = 0
	}
	end := start + 10
	if end > n {
		end = n
	}
	for i := start; i < end; i++ {
		name, _ := m.session.VersionName(i)
		kind, _ := m.session.VersionKind(i)
		line := fmt.Sprintf("%s  %s", name, dimStyle.Render(kind.String()))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.session.AccountsLen() == 0 {
		b.WriteString(dimStyle.Render("No account signed in."))
	} else {
		name, _ := m.session.AccountName(0)
		b.WriteString(infoStyle.Render("Account: " + name))
	}

	return b.String()
}

func (m Model) viewLogin() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Sign in with your browser"))
	b.WriteString("\n\n")
	if m.deviceCode != nil {
		b.WriteString(fmt.Sprintf("Open %s and enter the code\n\n", m.deviceCode.VerificationURI))
		b.WriteString("    ")
		b.WriteString(codeStyle.Render(m.deviceCode.UserCode))
		b.WriteString("\n\n")
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(dimStyle.Render("Waiting for authorization..."))

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	row := func(label string, counter *task.Counter, bar progress.Model) {
		b.WriteString(infoStyle.Render(label))
		b.WriteString("\n")
		if counter != nil {
			if percent, ok := counter.Percent(); ok {
				b.WriteString(bar.ViewAs(percent))
				total, finished := counter.Snapshot()
				b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", finished, total)))
			} else {
				b.WriteString(m.spinner.View())
				b.WriteString(dimStyle.Render(" starting..."))
			}
		}
		b.WriteString("\n\n")
	}

	row("Assets", m.assetsCounter, m.assetsBar)
	row("Libraries", m.libsCounter, m.libsBar)
	row("Game archive", m.jarCounter, m.jarBar)

	return b.String()
}

func (m Model) viewReady() string {
	var b strings.Builder

	content := "Ready to launch!"
	if len(m.launchCmd) > 0 {
		content += "\n\n" + dimStyle.Render(strings.Join(m.launchCmd, " "))
	} else if m.session.AccountsLen() == 0 {
		content += "\n\n" + dimStyle.Render("Sign in to build the launch command.")
	}
	b.WriteString(boxStyle.Render(successStyle.Render(content)))

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Something went wrong:"))
	b.WriteString("\n\n  ")
	if m.err != nil {
		b.WriteString(m.err.Error())
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateSelectVersion:
		return "enter: download • a: sign in • up/down: select • esc: quit"
	case StateResolving, StateDownloading:
		return "esc: cancel"
	case StateLogin:
		return "esc: abandon sign-in"
	case StateReady, StateError:
		return "q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(session *launcher.State) error {
	p := tea.NewProgram(NewModel(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
