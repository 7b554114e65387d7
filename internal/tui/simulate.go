// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// simulateMode picks which admin-API call the form submits to.
type simulateMode int

const (
	modeSetup simulateMode = iota
	modeDeactivate
)

// simulateResultMsg carries a completed simulation back into the model.
type simulateResultMsg struct {
	result *SimulateResult
	err    error
}

// SimulateModel drives a huh form that issues setupDataCall/
// deactivateDataCall simulations against a running daemon, for manual
// bench testing without a real modem.
type SimulateModel struct {
	backend Backend
	slots   []int
	width   int
	height  int

	mode simulateMode
	form *huh.Form

	slotStr string
	apn     string
	ipv4    bool
	ipv6    bool
	roaming bool
	cidStr  string

	lastResult *SimulateResult
	lastErr    error
}

func NewSimulateModel(backend Backend, slots []int) SimulateModel {
	m := SimulateModel{
		backend: backend,
		slots:   slots,
		slotStr: "0",
		apn:     "ims",
		ipv4:    true,
		cidStr:  "1",
	}
	m.form = m.buildForm()
	return m
}

func (m *SimulateModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[simulateMode]().
				Title("Operation").
				Options(
					huh.NewOption("setupDataCall", modeSetup),
					huh.NewOption("deactivateDataCall", modeDeactivate),
				).
				Value(&m.mode),
			huh.NewInput().Title("Slot").Value(&m.slotStr),
			huh.NewInput().Title("APN").Value(&m.apn),
			huh.NewConfirm().Title("ProtocolIPv4").Value(&m.ipv4),
			huh.NewConfirm().Title("ProtocolIPv6").Value(&m.ipv6),
			huh.NewConfirm().Title("IsRoaming").Value(&m.roaming),
			huh.NewInput().Title("CID (deactivate only)").Value(&m.cidStr),
		),
	)
}

func (m SimulateModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SimulateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case simulateResultMsg:
		m.lastResult = msg.result
		m.lastErr = msg.err
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.submit()
	}
	return m, cmd
}

func (m SimulateModel) submit() tea.Cmd {
	slot, err := strconv.Atoi(m.slotStr)
	if err != nil {
		return func() tea.Msg { return simulateResultMsg{err: fmt.Errorf("simulate: invalid slot %q: %w", m.slotStr, err)} }
	}

	switch m.mode {
	case modeSetup:
		req := SimulateSetupRequest{
			Slot:         slot,
			APN:          m.apn,
			ProtocolIPv4: m.ipv4,
			ProtocolIPv6: m.ipv6,
			IsRoaming:    m.roaming,
		}
		return func() tea.Msg {
			res, err := m.backend.SimulateSetup(req)
			return simulateResultMsg{result: res, err: err}
		}
	default:
		cid, err := strconv.ParseUint(m.cidStr, 10, 32)
		if err != nil {
			return func() tea.Msg { return simulateResultMsg{err: fmt.Errorf("simulate: invalid cid %q: %w", m.cidStr, err)} }
		}
		return func() tea.Msg {
			res, err := m.backend.SimulateDeactivate(slot, uint32(cid))
			return simulateResultMsg{result: res, err: err}
		}
	}
}

func (m SimulateModel) View() string {
	out := m.form.View()
	if m.lastErr != nil {
		out += "\n" + StyleStatusBad.Render("error: "+m.lastErr.Error())
	} else if m.lastResult != nil {
		out += "\n" + StyleStatusGood.Render("result: "+m.lastResult.Result)
		if m.lastResult.Response != nil {
			out += "\n" + StyleSubtitle.Render(fmt.Sprintf("cid=%d iface=%s ipv4=%s ipv6=%s",
				m.lastResult.Response.ID, m.lastResult.Response.InterfaceName,
				m.lastResult.Response.InternalIPv4, m.lastResult.Response.InternalIPv6))
		}
	}
	return StyleCard.Render(out)
}
