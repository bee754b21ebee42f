// Package dashboard is a single-screen Bubble Tea UI over the sync monitor:
// connectivity badge, pending-change count, last-sync age, and a manual
// sync key. It reads status live and never mutates the store directly.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/keval/invo/internal/monitor"
	"github.com/keval/invo/internal/output"
	"github.com/keval/invo/internal/sync"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(16)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)
)

type tickMsg time.Time

type statusMsg struct {
	status monitor.Status
	err    error
}

type syncDoneMsg struct {
	result sync.SyncResult
	err    error
}

// Model is the Bubble Tea model for the sync dashboard.
type Model struct {
	mon     *monitor.Monitor
	status  monitor.Status
	spinner spinner.Model
	err     error
	notice  string
	width   int
}

// New creates the dashboard model over a running monitor.
func New(mon *monitor.Monitor) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{mon: mon, spinner: sp}
}

// Init starts the status refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshStatus(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshStatus() tea.Cmd {
	return func() tea.Msg {
		st, err := m.mon.Status()
		return statusMsg{status: st, err: err}
	}
}

func (m Model) syncNow() tea.Cmd {
	return func() tea.Msg {
		res, err := m.mon.SyncNow(context.Background(), false)
		return syncDoneMsg{result: res, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.status.Sync.IsSyncing {
				return m, nil
			}
			m.notice = ""
			return m, m.syncNow()
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshStatus(), tickCmd())

	case statusMsg:
		m.status = msg.status
		m.err = msg.err
		return m, nil

	case syncDoneMsg:
		switch {
		case errors.Is(msg.err, monitor.ErrOffline):
			m.notice = "offline, changes stay queued"
		case errors.Is(msg.err, sync.ErrSyncInProgress):
			m.notice = "sync already running"
		case msg.err != nil:
			m.notice = msg.err.Error()
		case msg.result.Err != nil:
			m.notice = msg.result.Err.Error()
		default:
			m.notice = fmt.Sprintf("synced: %d change(s) uploaded", msg.result.Uploaded)
		}
		return m, m.refreshStatus()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var body string

	body += titleStyle.Render("invo sync") + "\n\n"
	body += labelStyle.Render("Connection") + output.OnlineBadge(m.status.IsOnline) + "\n"

	state := "idle"
	if m.status.Sync.IsSyncing {
		state = m.spinner.View() + " syncing"
	}
	body += labelStyle.Render("State") + state + "\n"
	body += labelStyle.Render("Pending changes") + fmt.Sprintf("%d", m.status.Sync.PendingChanges) + "\n"
	body += labelStyle.Render("Last synced") + output.SyncAge(m.status.Sync.LastSyncTime) + "\n"

	if m.status.Sync.Error != "" {
		body += labelStyle.Render("Sync error") + errStyle.Render(m.status.Sync.Error) + "\n"
	}
	if m.err != nil {
		body += labelStyle.Render("Status error") + errStyle.Render(m.err.Error()) + "\n"
	}
	if m.notice != "" {
		body += "\n" + m.notice + "\n"
	}

	view := boxStyle.Render(body) + "\n" + footerStyle.Render("s: sync now • q: quit")
	return view
}
