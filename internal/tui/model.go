// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package tui implements the cmd/iwlanctl operator dashboard: a Bubble Tea
// program that shows per-slot tunnel state and drives setupDataCall/
// deactivateDataCall simulations against a running epdgd's admin API, for
// bench testing without a real modem.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View identifies which of the dashboard's panels is active.
type View int

const (
	ViewDashboard View = iota
	ViewSimulate
)

// TunnelStatus is one slot's APN -> state snapshot, as returned by
// GET /tunnels.
type TunnelStatus struct {
	ID            uint32
	APN           string
	State         string
	InterfaceName string
	InternalIPv4  string
	InternalIPv6  string
	Cause         int
}

// PolicyStatus is an Error Policy Engine snapshot for one APN, as returned
// by GET /policy/{apn}.
type PolicyStatus struct {
	APN           string
	CanBringUp    bool
	RetryAtMillis int64
	LastFailCause int
}

// SimulateSetupRequest is the form payload for POST /simulate/setup.
type SimulateSetupRequest struct {
	Slot         int
	APN          string
	ProtocolIPv4 bool
	ProtocolIPv6 bool
	IsRoaming    bool
}

// SimulateResult is the outcome of a simulated setup or deactivate call.
type SimulateResult struct {
	Result   string
	Response *TunnelStatus
}

// Backend is everything the dashboard needs from a running daemon. It is
// implemented by HTTPBackend (cmd/iwlanctl talking to internal/adminapi
// over the network) and by mockBackend in tests.
type Backend interface {
	GetTunnels(slot int) ([]TunnelStatus, error)
	GetPolicy(slot int, apn string) (*PolicyStatus, error)
	SimulateSetup(req SimulateSetupRequest) (*SimulateResult, error)
	SimulateDeactivate(slot int, cid uint32) (*SimulateResult, error)
}

// Model is the root Bubble Tea model: a top bar plus whichever of the two
// sub-models is active.
type Model struct {
	backend Backend
	slots   []int
	active  View
	width   int
	height  int

	dashboard DashboardModel
	simulate  SimulateModel

	err error
}

// NewModel builds the root dashboard model for the given backend, polling
// the given slot indices.
func NewModel(backend Backend, slots []int) Model {
	return Model{
		backend:   backend,
		slots:     slots,
		active:    ViewDashboard,
		dashboard: NewDashboardModel(backend, slots),
		simulate:  NewSimulateModel(backend, slots),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.dashboard.Init(), m.simulate.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.dashboard.width, m.dashboard.height = msg.Width, msg.Height
		m.simulate.width, m.simulate.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.active == ViewDashboard {
				return m, tea.Quit
			}
		case "tab":
			if m.active == ViewDashboard {
				m.active = ViewSimulate
			} else {
				m.active = ViewDashboard
			}
			return m, nil
		}

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.active {
	case ViewDashboard:
		var dm tea.Model
		dm, cmd = m.dashboard.Update(msg)
		m.dashboard = dm.(DashboardModel)
	case ViewSimulate:
		var sm tea.Model
		sm, cmd = m.simulate.Update(msg)
		m.simulate = sm.(SimulateModel)
	}
	return m, cmd
}

func (m Model) View() string {
	bar := m.renderTopBar()
	var body string
	switch m.active {
	case ViewDashboard:
		body = m.dashboard.View()
	case ViewSimulate:
		body = m.simulate.View()
	}
	return StyleApp.Render(bar + "\n\n" + body)
}

func (m Model) renderTopBar() string {
	tabs := []string{"Dashboard", "Simulate"}
	active := int(m.active)
	rendered := make([]string, 0, len(tabs))
	for i, t := range tabs {
		if i == active {
			rendered = append(rendered, StyleMenuItemActive.Render(t))
		} else {
			rendered = append(rendered, StyleMenuItem.Render(t))
		}
	}
	title := StyleTitle.Render("iwlanctl")
	help := StyleSubtitle.Render("tab: switch  q: quit")
	return StyleTopBar.Render(title + "  " + joinTabs(rendered) + "  " + help)
}

func joinTabs(tabs []string) string {
	out := ""
	for i, t := range tabs {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}

// errMsg wraps a Backend error so it can travel through tea.Msg.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }
