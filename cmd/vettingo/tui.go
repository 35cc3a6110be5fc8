//
//  Copyright (c) 2025 Vettingo contributors.
//  All rights reserved.
//
//  SPDX-License-Identifier: AGPL-3.0-or-later
//
//  This file is part of Vettingo.
//
//  Vettingo is free software: you can redistribute it and/or modify
//  it under the terms of the GNU Affero General Public License as
//  published by the Free Software Foundation, either version 3 of the
//  License, or (at your option) any later version.
//
//  Vettingo is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU Affero General Public License for more details.
//
//  You should have received a copy of the GNU Affero General Public License
//  along with Vettingo.  If not, see <http://www.gnu.org/licenses/>.
//

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gobuffalo/flect"
	"github.com/urfave/cli/v3"

	"github.com/vettingo/vettingo/pkg/build"
	"github.com/vettingo/vettingo/pkg/events"
	"github.com/vettingo/vettingo/pkg/indicator"
	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/logging"
	"github.com/vettingo/vettingo/pkg/manager"
)

const (
	maxWidth   = 80
	tickRate   = 100
	nLogLines  = 8
	helpHeight = 2
	statusChar = "●"
)

type winSize struct {
	width  int
	height int
}

type keymap struct {
	quit  key.Binding
	clear key.Binding
}

type TickMsg time.Time

// ChangedMsg is sent when the registry changed since the last redraw.
type ChangedMsg struct{}

// StoppedMsg is sent once the manager has stopped every unit, after a
// signal, a unit failure or a quit request.
type StoppedMsg struct {
	Err error
}

type tuiModel struct {
	reg        *loading.Registry
	bus        *events.Bus
	manager    *manager.Manager
	logBuffer  *logging.TailBuffer
	addr       string
	frame      int
	windowSize winSize
	keymap     keymap
	help       help.Model

	// set when the manager stopped because a unit failed
	err error
}

var (
	defaultTextColor = lipgloss.NewStyle().Foreground(
		lipgloss.AdaptiveColor{Light: "240", Dark: "255"},
	)

	titleStyle = defaultTextColor.
			Bold(true).
			PaddingLeft(2).
			MarginTop(1).
			MarginBottom(1)

	infoLabelStyle = defaultTextColor.
			AlignHorizontal(lipgloss.Right).
			Width(14).
			MarginLeft(2).
			MarginRight(2)

	labelStyle = defaultTextColor.
			Bold(true).
			MarginLeft(4).
			MarginTop(1)

	indicatorStyle = lipgloss.NewStyle().
			MarginLeft(6)

	emptyStyle = lipgloss.NewStyle().
			Faint(true).
			MarginLeft(4).
			MarginTop(1)

	logSectionStyle = lipgloss.NewStyle().
			MarginTop(2).
			Padding(1, 0, 0, 2).
			Width(maxWidth)

	statusOnStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingRight(1).
			Foreground(lipgloss.Color("120"))

	statusOffStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingRight(1).
			Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().
			PaddingLeft(4)
)

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*tickRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForChange(bus *events.Bus) tea.Cmd {
	return func() tea.Msg {
		if !bus.Wait() {
			return nil
		}
		return ChangedMsg{}
	}
}

func waitForStop(mngr *manager.Manager) tea.Cmd {
	return func() tea.Msg {
		<-mngr.Stopped()
		return StoppedMsg{Err: mngr.Err()}
	}
}

func newTUIModel(reg *loading.Registry, mngr *manager.Manager, logBuffer *logging.TailBuffer, addr string) tuiModel {
	return tuiModel{
		reg:       reg,
		bus:       events.Listen(reg),
		manager:   mngr,
		logBuffer: logBuffer,
		addr:      addr,
		keymap: keymap{
			quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q/esc", "quit"),
			),
			clear: key.NewBinding(
				key.WithKeys("c"),
				key.WithHelp("c", "clear all"),
			),
		},
		help: help.New(),
	}
}

// Init implements tea.Model.
func (m tuiModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.ClearScreen, tickCmd(), waitForChange(m.bus)}
	if m.manager != nil {
		cmds = append(cmds, waitForStop(m.manager))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.quit):
			log.Info("stopping vettingo ...")
			if m.manager == nil {
				m.bus.Close()
				return m, tea.Quit
			}
			// the program quits on StoppedMsg
			m.manager.Shutdown()
			return m, nil

		case key.Matches(msg, m.keymap.clear):
			log.Info("clearing all loading states")
			m.reg.ClearAll()
		}

	case TickMsg:
		m.frame++
		return m, tickCmd()

	case ChangedMsg:
		return m, waitForChange(m.bus)

	case StoppedMsg:
		if msg.Err != nil {
			log.Error("stopping dashboard", "err", msg.Err)
		}
		m.err = msg.Err
		m.bus.Close()
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.windowSize.width = msg.Width
		m.windowSize.height = msg.Height
		logSectionStyle = logSectionStyle.Width(min(msg.Width, maxWidth))
	}

	return m, nil
}

func (m tuiModel) HelpView() string {
	return "\n" + m.help.ShortHelpView([]key.Binding{
		m.keymap.clear,
		m.keymap.quit,
	})
}

// View implements tea.Model.
func (m tuiModel) View() string {
	if d, ok := m.reg.Overlay(); ok && m.windowSize.width > 0 {
		height := max(m.windowSize.height-helpHeight, 1)
		return indicator.Place(d, m.windowSize.width, height, m.frame) +
			helpStyle.Render(m.HelpView())
	}

	doc := strings.Builder{}
	doc.WriteString(titleStyle.Render(fmt.Sprintf("vettingo %s", build.Version())))
	doc.WriteString("\n")

	status, addr := statusOffStyle, "disabled"
	if m.addr != "" {
		status, addr = statusOnStyle, fmt.Sprintf("http://%s/api/loading", m.addr)
	}
	doc.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		infoLabelStyle.Render(status.Render(statusChar)+defaultTextColor.Render("inspector:")),
		defaultTextColor.Render(addr),
	))
	doc.WriteString("\n")
	doc.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		infoLabelStyle.Render("in progress:"),
		defaultTextColor.Render(fmt.Sprintf("%d", m.reg.Len())),
	))
	doc.WriteString("\n")

	var inline []loading.Descriptor
	for _, d := range m.reg.Active() {
		if !d.Overlay() {
			inline = append(inline, d)
		}
	}

	if len(inline) == 0 {
		doc.WriteString(emptyStyle.Render("nothing loading"))
		doc.WriteString("\n")
	}
	for _, d := range inline {
		doc.WriteString(labelStyle.Render(flect.Titleize(d.Key)))
		doc.WriteString("\n")
		doc.WriteString(indicatorStyle.Render(indicator.Render(d, m.frame)))
		doc.WriteString("\n")
	}

	if m.logBuffer != nil {
		doc.WriteString(logSectionStyle.Render(strings.Join(m.logBuffer.Lines(), "\n")))
		doc.WriteString("\n")
	}

	doc.WriteString(helpStyle.Render(m.HelpView()))
	return doc.String()
}

func startTUI(c *cli.Command) error {
	logBuffer := logging.NewTailBuffer(nLogLines)
	logging.SetTUI(logBuffer)

	a, err := newApp(conf, c, true)
	if err != nil {
		return err
	}
	go a.manager.Run()

	model := newTUIModel(a.reg, a.manager, logBuffer, a.addr)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()

	// the program may also end on its own, e.g. on a terminal error
	a.manager.Shutdown()
	<-a.manager.Stopped()

	if err != nil {
		return fmt.Errorf("could not run TUI: %w", err)
	}
	if fm, ok := final.(tuiModel); ok && fm.err != nil {
		return fm.err
	}
	return a.manager.Err()
}
