// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     tui
// Description: Bubbletea editor that runs commands against a local sheet
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwstringx "github.com/msto63/gridwerk/foundation/utils/stringx"
	"github.com/msto63/gridwerk/internal/command"
	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/internal/sheetfile"
	"github.com/msto63/gridwerk/pkg/core/version"
)

const (
	cellWidth      = 10
	rowHeaderWidth = 4
	logHeight      = 6
	maxHistory     = 100
)

type entryKind int

const (
	entryCall entryKind = iota
	entryResult
	entryError
	entryInfo
)

type logEntry struct {
	kind entryKind
	text string
}

type savedMsg struct {
	path string
	err  error
}

// Config holds editor configuration
type Config struct {
	Engine   *command.Engine
	Snapshot sheet.Snapshot

	// Path of the snapshot file; empty disables saving
	Path string
}

// Model is the Bubbletea model of the editor
type Model struct {
	width  int
	height int
	ready  bool

	input   textinput.Model
	logView viewport.Model

	engine *command.Engine
	snap   sheet.Snapshot
	path   string
	dirty  bool

	entries []logEntry

	inputHistory []string
	historyIndex int // -1: not navigating
	currentInput string

	colOffset int
	rowOffset int
}

// New creates the editor model
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Befehl eingeben, z.B. update_cell(A, 1, 42)"
	ti.Prompt = "› "
	ti.CharLimit = command.DefaultMaxCommandLength
	ti.Focus()

	engine := cfg.Engine
	if engine == nil {
		engine = command.NewEngine()
	}

	return Model{
		input:        ti,
		engine:       engine,
		snap:         cfg.Snapshot,
		path:         cfg.Path,
		historyIndex: -1,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Snapshot returns the current sheet
func (m Model) Snapshot() sheet.Snapshot {
	return m.snap
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logView = viewport.New(msg.Width-4, logHeight)
			m.ready = true
		} else {
			m.logView.Width = msg.Width - 4
			m.logView.Height = logHeight
		}
		m.input.Width = msg.Width - 8
		m.updateLog()

	case savedMsg:
		if msg.err != nil {
			m.entries = append(m.entries, logEntry{kind: entryError, text: "Speichern fehlgeschlagen: " + msg.err.Error()})
		} else {
			m.dirty = false
			m.entries = append(m.entries, logEntry{kind: entryInfo, text: "Gespeichert: " + msg.path})
		}
		m.updateLog()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		input := strings.TrimSpace(m.input.Value())
		if input == "" {
			return m, nil
		}
		m.pushHistory(input)
		m.input.SetValue("")
		m.execute(input)
		return m, nil

	case tea.KeyCtrlS:
		if m.path == "" {
			m.entries = append(m.entries, logEntry{kind: entryError, text: "Keine Datei angegeben (--file)"})
			m.updateLog()
			return m, nil
		}
		return m, m.save()

	case tea.KeyCtrlL:
		m.entries = nil
		m.updateLog()
		return m, nil

	case tea.KeyUp:
		m.historyUp()
		return m, nil

	case tea.KeyDown:
		m.historyDown()
		return m, nil

	case tea.KeyTab:
		if m.colOffset+1 < m.snap.ColumnCount() {
			m.colOffset++
		}
		return m, nil

	case tea.KeyShiftTab:
		if m.colOffset > 0 {
			m.colOffset--
		}
		return m, nil

	case tea.KeyPgDown:
		if m.rowOffset+1 < m.snap.RowCount() {
			m.rowOffset++
		}
		return m, nil

	case tea.KeyPgUp:
		if m.rowOffset > 0 {
			m.rowOffset--
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute runs input against the current sheet. Runs are applied in input
// order, so they happen inside Update rather than in a command.
func (m *Model) execute(input string) {
	result, err := m.engine.Run(context.Background(), input, m.snap)

	m.entries = append(m.entries, logEntry{kind: entryCall, text: input})
	for _, line := range result.Lines {
		m.entries = append(m.entries, logEntry{kind: entryResult, text: line.String()})
	}
	if result.Changed {
		m.snap = result.Snapshot
		m.dirty = true
		m.colOffset = min(m.colOffset, max(m.snap.ColumnCount()-1, 0))
		m.rowOffset = min(m.rowOffset, max(m.snap.RowCount()-1, 0))
	}
	if err != nil {
		m.entries = append(m.entries, logEntry{kind: entryError, text: describeError(err)})
	}
	m.updateLog()
}

func (m Model) save() tea.Cmd {
	path, snap := m.path, m.snap
	return func() tea.Msg {
		return savedMsg{path: path, err: sheetfile.Save(path, snap)}
	}
}

func (m *Model) pushHistory(input string) {
	if n := len(m.inputHistory); n == 0 || m.inputHistory[n-1] != input {
		m.inputHistory = append(m.inputHistory, input)
		if len(m.inputHistory) > maxHistory {
			m.inputHistory = m.inputHistory[1:]
		}
	}
	m.historyIndex = -1
	m.currentInput = ""
}

func (m *Model) historyUp() {
	if len(m.inputHistory) == 0 {
		return
	}
	switch {
	case m.historyIndex == -1:
		m.currentInput = m.input.Value()
		m.historyIndex = len(m.inputHistory) - 1
	case m.historyIndex > 0:
		m.historyIndex--
	}
	m.input.SetValue(m.inputHistory[m.historyIndex])
	m.input.CursorEnd()
}

func (m *Model) historyDown() {
	if m.historyIndex == -1 {
		return
	}
	if m.historyIndex < len(m.inputHistory)-1 {
		m.historyIndex++
		m.input.SetValue(m.inputHistory[m.historyIndex])
	} else {
		m.historyIndex = -1
		m.input.SetValue(m.currentInput)
	}
	m.input.CursorEnd()
}

func (m *Model) updateLog() {
	if !m.ready {
		return
	}
	lines := make([]string, len(m.entries))
	for i, e := range m.entries {
		switch e.kind {
		case entryCall:
			lines[i] = CallStyle.Render("› " + e.text)
		case entryResult:
			lines[i] = ResultStyle.Render("  " + e.text)
		case entryError:
			lines[i] = ErrorStyle.Render("  " + e.text)
		default:
			lines[i] = InfoStyle.Render("  " + e.text)
		}
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	m.logView.GotoBottom()
}

// describeError renders a command error with its kind
func describeError(err error) string {
	code := mdwerror.GetCode(err)
	msg := err.Error()
	if e, ok := mdwerror.As(err); ok {
		msg = e.Message()
	}
	return fmt.Sprintf("Fehler [%s]: %s", code, msg)
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Lade gridwerk..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(GridPanelStyle.Width(m.width - 2).Render(m.renderGrid(m.visibleColumns(), m.visibleRows())))
	b.WriteString("\n")
	b.WriteString(LogPanelStyle.Width(m.width - 2).Render(m.logView.View()))
	b.WriteString("\n")
	b.WriteString(InputStyle.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	name := m.path
	if name == "" {
		name = "ohne Datei"
	}
	return LogoStyle.Render(Logo) + " " + SubHeaderStyle.Render(name)
}

func (m Model) visibleColumns() int {
	n := (m.width - 6 - rowHeaderWidth) / (cellWidth + 1)
	if n < 1 {
		n = 1
	}
	return n
}

func (m Model) visibleRows() int {
	// header, grid border and header row, log panel, input, status, help
	n := m.height - 1 - 3 - (logHeight + 2) - 3 - 1 - 1
	if n < 1 {
		n = 1
	}
	return n
}

// renderGrid draws the visible part of the sheet
func (m Model) renderGrid(cols, rows int) string {
	lastCol := min(m.colOffset+cols, m.snap.ColumnCount())
	lastRow := min(m.rowOffset+rows, m.snap.RowCount())

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowHeaderWidth))
	for c := m.colOffset; c < lastCol; c++ {
		label := mdwstringx.Truncate(m.snap.Label(c), cellWidth, "…")
		b.WriteString(" ")
		b.WriteString(ColumnHeaderStyle.Render(mdwstringx.Center(label, cellWidth, ' ')))
	}

	for r := m.rowOffset + 1; r <= lastRow; r++ {
		b.WriteString("\n")
		b.WriteString(RowHeaderStyle.Render(mdwstringx.PadLeft(strconv.Itoa(r), rowHeaderWidth, ' ')))
		for c := m.colOffset; c < lastCol; c++ {
			b.WriteString(" ")
			b.WriteString(renderCell(m.snap, sheet.Key{Column: m.snap.Label(c), Row: r}))
		}
	}
	return b.String()
}

func renderCell(s sheet.Snapshot, k sheet.Key) string {
	c, ok := s.Cell(k)
	if !ok || c.Value == "" {
		return EmptyCellStyle.Render(mdwstringx.PadRight("·", cellWidth, ' '))
	}

	value := mdwstringx.Truncate(c.Value, cellWidth, "…")
	align := mdwstringx.PadRight
	if _, numeric := sheet.ParseNumber(c.Value); numeric {
		align = mdwstringx.PadLeft
	}
	if c.Style != nil {
		switch c.Style.TextAlign {
		case "right":
			align = mdwstringx.PadLeft
		case "left":
			align = mdwstringx.PadRight
		case "center":
			align = mdwstringx.Center
		}
	}
	return cellStyle(c.Style).Render(align(value, cellWidth, ' '))
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf("%d × %d", m.snap.RowCount(), m.snap.ColumnCount())
	if m.dirty {
		left += " • geändert"
	}
	right := fmt.Sprintf("Spalte %d, Zeile %d │ v%s", m.colOffset+1, m.rowOffset+1, version.CLI)

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if pad < 1 {
		pad = 1
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", pad) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("Enter", "ausführen"),
		RenderKeyHint("↑/↓", "Historie"),
		RenderKeyHint("Tab", "Spalten"),
		RenderKeyHint("PgUp/PgDn", "Zeilen"),
		RenderKeyHint("Ctrl+S", "speichern"),
		RenderKeyHint("Ctrl+L", "Log leeren"),
		RenderKeyHint("Esc", "beenden"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

// Run starts the editor and returns the final sheet
func Run(cfg Config) (sheet.Snapshot, error) {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return cfg.Snapshot, err
	}
	return final.(Model).Snapshot(), nil
}
