// Package ui provides the interactive terminal server picker.
// This file contains the bubbletea model: a search input over the live
// row projection, updated through the minimal diff as discovery results
// and keystrokes arrive.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samermassoud/eduvpn-client/common"
	"github.com/samermassoud/eduvpn-client/discovery"
	"github.com/samermassoud/eduvpn-client/rows"
)

// Picker drives the interactive selection flow.
type Picker struct {
	loader    *discovery.Loader
	writeback common.CacheWriter
}

// NewPicker creates a picker over the given loader. writeback may be
// nil; server-tier payloads are then not persisted.
func NewPicker(loader *discovery.Loader, writeback common.CacheWriter) *Picker {
	return &Picker{loader: loader, writeback: writeback}
}

// Run blocks until the user selects a row or quits. Returns the chosen
// base URL, or "" when the user quit without choosing.
func (p *Picker) Run(ctx context.Context) (string, error) {
	m := newModel(ctx, p.loader, p.writeback)
	program := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return "", err
	}
	if fm, ok := final.(model); ok {
		if fm.err != nil {
			return "", fm.err
		}
		return fm.choice, nil
	}
	return "", nil
}

// Messages delivered into the bubbletea loop.

type directoryMsg struct {
	dt      common.DirectoryType
	result  *discovery.Result
	updates <-chan *discovery.Result
}

type serverResultMsg struct {
	dt     common.DirectoryType
	result *discovery.Result
}

type loadFailedMsg struct {
	err error
}

type model struct {
	ctx       context.Context
	loader    *discovery.Loader
	writeback common.CacheWriter

	input  textinput.Model
	dir    *discovery.Directory
	rows   []rows.Row
	cursor int

	// One gate per feed: generations order successive loads of the
	// same feed, not the two concurrent feeds against each other.
	gates map[common.DirectoryType]*discovery.GenerationGate

	source string
	err    error
	choice string
}

func newModel(ctx context.Context, loader *discovery.Loader, writeback common.CacheWriter) model {
	input := textinput.New()
	input.Placeholder = "Search for your institute or organization"
	input.Focus()

	return model{
		ctx:       ctx,
		loader:    loader,
		writeback: writeback,
		input:     input,
		dir:       &discovery.Directory{},
		gates: map[common.DirectoryType]*discovery.GenerationGate{
			common.DirectoryServers:       {},
			common.DirectoryOrganizations: {},
		},
		source: "loading",
	}
}

// Init starts the cursor blink and one load per feed.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.loadCmd(common.DirectoryServers),
		m.loadCmd(common.DirectoryOrganizations),
	)
}

func (m model) loadCmd(dt common.DirectoryType) tea.Cmd {
	return func() tea.Msg {
		result, updates, err := m.loader.Load(m.ctx, dt)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return directoryMsg{dt: dt, result: result, updates: updates}
	}
}

// awaitServerCmd forwards the background server-tier result, if one
// arrives.
func awaitServerCmd(dt common.DirectoryType, updates <-chan *discovery.Result) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-updates
		if !ok {
			return nil
		}
		return serverResultMsg{dt: dt, result: result}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up":
			m.moveCursor(-1)
			return m, nil
		case "down":
			m.moveCursor(1)
			return m, nil
		case "enter":
			if m.cursor >= 0 && m.cursor < len(m.rows) {
				if url := m.rows[m.cursor].BaseURL; url != "" {
					m.choice = url
					return m, tea.Quit
				}
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.reproject()
		return m, cmd

	case directoryMsg:
		if m.gates[msg.dt].Accept(msg.result.Generation) {
			m.dir = m.dir.Merge(msg.result.Directory)
			m.source = msg.result.Tier.String()
			m.reproject()
		}
		if msg.result.Tier == discovery.TierServer {
			m.persist(msg.dt, msg.result.Raw)
		}
		if msg.updates != nil {
			return m, awaitServerCmd(msg.dt, msg.updates)
		}
		return m, nil

	case serverResultMsg:
		// Stale background results lose to any newer load of the
		// same feed.
		if m.gates[msg.dt].Accept(msg.result.Generation) {
			m.dir = m.dir.Merge(msg.result.Directory)
			m.source = msg.result.Tier.String()
			m.reproject()
		}
		m.persist(msg.dt, msg.result.Raw)
		return m, nil

	case loadFailedMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// reproject recomputes the row list for the current directory and
// query, applying the keyed diff so unchanged rows keep their place.
func (m *model) reproject() {
	next := rows.Project(m.dir, m.input.Value(), true)
	diff := rows.Compute(m.rows, next)
	m.rows = rows.Apply(m.rows, diff)
	m.clampCursor()
}

func (m *model) persist(dt common.DirectoryType, payload []byte) {
	if m.writeback == nil {
		return
	}
	if err := m.writeback.Write(m.ctx, dt, payload); err != nil {
		common.LogWarn("ui: cache writeback for %s failed: %v", dt, err)
	}
}

func (m *model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	// Skip headers and the no-results marker; they are not selectable.
	for m.cursor >= 0 && m.cursor < len(m.rows) && !selectable(m.rows[m.cursor]) {
		m.cursor += delta
	}
	m.clampCursor()
}

func (m *model) clampCursor() {
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func selectable(r rows.Row) bool {
	return r.BaseURL != ""
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select a server"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, row := range m.rows {
		line := renderRow(row)
		if i == m.cursor && selectable(row) {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("source: %s  •  enter to select, esc to quit", m.source)))
	return b.String()
}

func renderRow(row rows.Row) string {
	switch row.Kind {
	case rows.KindSectionHeader:
		return headerStyle.Render(row.Header.String())
	case rows.KindNoResults:
		return dimStyle.Render(row.DisplayName)
	case rows.KindServerByURL:
		return row.BaseURL
	default:
		return row.DisplayName
	}
}
