// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// tickMsg drives the dashboard's poll loop.
type tickMsg time.Time

const dashboardPollInterval = 5 * time.Second

// tunnelsLoadedMsg carries one slot's freshly polled tunnel list.
type tunnelsLoadedMsg struct {
	slot    int
	tunnels []TunnelStatus
	err     error
}

// DashboardModel polls GET /tunnels for every configured slot and renders
// the combined result as a table.
type DashboardModel struct {
	backend Backend
	slots   []int
	width   int
	height  int

	table table.Model
	rows  map[int][]TunnelStatus
}

func NewDashboardModel(backend Backend, slots []int) DashboardModel {
	columns := []table.Column{
		{Title: "Slot", Width: 4},
		{Title: "APN", Width: 16},
		{Title: "CID", Width: 6},
		{Title: "State", Width: 14},
		{Title: "Interface", Width: 12},
		{Title: "IPv4", Width: 15},
		{Title: "IPv6", Width: 20},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(true), table.WithHeight(12))
	return DashboardModel{
		backend: backend,
		slots:   slots,
		table:   t,
		rows:    make(map[int][]TunnelStatus),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.slots)+1)
	for _, slot := range m.slots {
		cmds = append(cmds, pollTunnels(m.backend, slot))
	}
	cmds = append(cmds, tickCmd())
	return tea.Batch(cmds...)
}

func pollTunnels(backend Backend, slot int) tea.Cmd {
	return func() tea.Msg {
		tunnels, err := backend.GetTunnels(slot)
		return tunnelsLoadedMsg{slot: slot, tunnels: tunnels, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(dashboardPollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		cmds := make([]tea.Cmd, 0, len(m.slots)+1)
		for _, slot := range m.slots {
			cmds = append(cmds, pollTunnels(m.backend, slot))
		}
		cmds = append(cmds, tickCmd())
		return m, tea.Batch(cmds...)

	case tunnelsLoadedMsg:
		if msg.err == nil {
			m.rows[msg.slot] = msg.tunnels
			m.table.SetRows(m.buildRows())
		}
		return m, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DashboardModel) buildRows() []table.Row {
	rows := make([]table.Row, 0)
	for _, slot := range m.slots {
		for _, t := range m.rows[slot] {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", slot),
				t.APN,
				fmt.Sprintf("%d", t.ID),
				t.State,
				t.InterfaceName,
				t.InternalIPv4,
				t.InternalIPv6,
			})
		}
	}
	return rows
}

func (m DashboardModel) View() string {
	var b strings.Builder
	b.WriteString(StyleCard.Render(m.table.View()))
	b.WriteString("\n")
	total := 0
	for _, slot := range m.slots {
		total += len(m.rows[slot])
	}
	b.WriteString(StyleSubtitle.Render(fmt.Sprintf("%d active call(s) across %d slot(s)", total, len(m.slots))))
	return b.String()
}
