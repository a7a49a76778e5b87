package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/acpica-host/acpi"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateList browserState = iota
	stateFilter
	stateDetail
)

type browserModel struct {
	err      error
	ready    *acpi.Ready
	devices  []deviceEntry
	visible  []int
	filter   textinput.Model
	detail   string
	selected int
	state    browserState
	loaded   bool
}

type devicesMsg struct {
	err     error
	devices []deviceEntry
}

type detailMsg struct {
	err    error
	detail string
}

func newBrowserModel(r *acpi.Ready) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "path or hardware ID"
	ti.Prompt = "filter: "
	ti.Width = 40
	return &browserModel{ready: r, filter: ti, state: stateList}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadDevices
}

func (m *browserModel) loadDevices() tea.Msg {
	devs, err := listDevices(context.Background(), m.ready)
	return devicesMsg{devices: devs, err: err}
}

func (m *browserModel) applyFilter() {
	q := strings.ToUpper(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, d := range m.devices {
		if q == "" || strings.Contains(strings.ToUpper(d.path), q) || strings.Contains(d.ids(), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateList
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateList {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			switch m.state {
			case stateList:
				if len(m.visible) > 0 {
					return m, m.describe(m.devices[m.visible[m.selected]])
				}
			case stateDetail:
				m.state = stateList
				m.detail = ""
				m.err = nil
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
				m.detail = ""
				m.err = nil
			}
		}

	case devicesMsg:
		m.loaded = true
		m.err = msg.err
		m.devices = msg.devices
		m.applyFilter()

	case detailMsg:
		m.detail = msg.detail
		m.err = msg.err
		m.state = stateDetail
	}
	return m, nil
}

// describe queries the details of one device.
func (m *browserModel) describe(d deviceEntry) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var b strings.Builder

		fmt.Fprintf(&b, "%s\n\n", pathStyle.Render(d.path))
		info := d.info
		fmt.Fprintf(&b, "type      %s\n", info.Type)
		if info.Has(table.ValidHID) {
			fmt.Fprintf(&b, "_HID      %s\n", idStyle.Render(info.HardwareID))
		}
		if len(info.Compatible) > 0 {
			fmt.Fprintf(&b, "_CID      %s\n", idStyle.Render(strings.Join(info.Compatible, " ")))
		}
		if info.Has(table.ValidUID) {
			fmt.Fprintf(&b, "_UID      %s\n", info.UniqueID)
		}
		if info.Has(table.ValidADR) {
			fmt.Fprintf(&b, "_ADR      0x%08X\n", info.Address)
		}
		if info.Flags&table.FlagPCIRootBridge != 0 {
			b.WriteString("PCI root bridge\n")
		}
		if sta, err := m.ready.EvaluateInteger(ctx, d.handle, "_STA"); err == nil {
			fmt.Fprintf(&b, "_STA      0x%X\n", sta)
		}

		prt, err := m.ready.IRQRoutingTable(ctx, d.handle)
		switch {
		case err == nil:
			b.WriteString("\n_PRT\n")
			for e := range prt.All() {
				fmt.Fprintf(&b, "  %s\n", formatRoute(e))
			}
		case status.CodeOf(err) != status.NotFound && status.CodeOf(err) != status.Type:
			return detailMsg{err: err}
		}

		children, err := m.ready.Children(ctx, d.handle)
		if err != nil {
			return detailMsg{err: err}
		}
		if len(children) > 0 {
			b.WriteString("\nchildren\n")
			for _, c := range children {
				name, err := m.ready.Name(ctx, c, false)
				if err != nil {
					return detailMsg{err: err}
				}
				fmt.Fprintf(&b, "  %s\n", name)
			}
		}
		return detailMsg{detail: b.String()}
	}
}

func (m *browserModel) View() string {
	if m.err != nil && m.state != stateDetail {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Walking namespace..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ACPI namespace"))
	fmt.Fprintf(&b, " %d devices\n\n", len(m.devices))

	switch m.state {
	case stateList, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		for i, idx := range m.visible {
			d := m.devices[idx]
			line := strings.Repeat("  ", int(d.depth-1)) + d.path[strings.LastIndexByte(d.path, '.')+1:]
			if ids := d.ids(); ids != "" {
				line += "  " + idStyle.Render(ids)
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • q quit"))

	case stateDetail:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.detail)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter back • q quit"))
	}
	return b.String()
}

func runInteractive(r *acpi.Ready) error {
	p := tea.NewProgram(newBrowserModel(r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
