// Package tui provides the interactive report browser for slurmacc.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hpcops/slurmacc/internal/cli"
)

// ComputeFunc produces the table the browser displays. It runs once in the
// background while the spinner is shown.
type ComputeFunc func() (cli.Table, error)

// DataLoadedMsg is sent when the report computation finishes.
type DataLoadedMsg struct {
	Table    cli.Table
	LoadTime time.Duration
}

// LoadFailedMsg is sent when the report computation fails.
type LoadFailedMsg struct {
	Err error
}

const (
	minTerminalWidth = 40

	// Scroll navigation
	headerOverhead    = 4 // title box + status bar height
	minHalfPageScroll = 1
	minContentHeight  = 3
	wheelScrollLines  = 3
)

// App is the root Bubble Tea model: one report table with vertical scrolling.
type App struct {
	title   string
	compute ComputeFunc

	lines    []string
	loaded   bool
	loadTime time.Duration
	err      error

	width  int
	height int
	offset int

	spinner spinner.Model
}

// NewApp creates the browser for a report computed by compute.
func NewApp(title string, compute ComputeFunc) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return App{title: title, compute: compute, spinner: sp}
}

// Run computes the report and opens the browser on the alternate screen.
func Run(title string, compute ComputeFunc) error {
	_, err := tea.NewProgram(NewApp(title, compute), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(computeCmd(a.compute), a.spinner.Tick)
}

// computeCmd runs the report computation in the background.
func computeCmd(compute ComputeFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		table, err := compute()
		if err != nil {
			return LoadFailedMsg{Err: err}
		}
		return DataLoadedMsg{Table: table, LoadTime: time.Since(start)}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.offset = a.clampOffset(a.offset)
		return a, nil

	case tea.MouseMsg:
		if !a.loaded {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.offset = a.clampOffset(a.offset - wheelScrollLines)
		case tea.MouseButtonWheelDown:
			a.offset = a.clampOffset(a.offset + wheelScrollLines)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg.String())

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lines = strings.Split(strings.TrimRight(cli.RenderTable(msg.Table), "\n"), "\n")
		return a, nil

	case LoadFailedMsg:
		a.loaded = true
		a.err = msg.Err
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Any key dismisses the error view.
	if a.err != nil {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	switch key {
	case "q", "esc":
		return a, tea.Quit
	case "j", "down":
		a.offset = a.clampOffset(a.offset + 1)
	case "k", "up":
		a.offset = a.clampOffset(a.offset - 1)
	case "g", "home":
		a.offset = 0
	case "G", "end":
		a.offset = a.clampOffset(len(a.lines))
	case "ctrl+d", "pgdown":
		a.offset = a.clampOffset(a.offset + a.halfPage())
	case "ctrl+u", "pgup":
		a.offset = a.clampOffset(a.offset - a.halfPage())
	}
	return a, nil
}

func (a App) contentHeight() int {
	h := a.height - headerOverhead
	if h < minContentHeight {
		h = minContentHeight
	}
	return h
}

func (a App) halfPage() int {
	half := a.contentHeight() / 2
	if half < minHalfPageScroll {
		half = minHalfPageScroll
	}
	return half
}

func (a App) clampOffset(offset int) int {
	max := len(a.lines) - a.contentHeight()
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols), need at least %d.\n", a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.err != nil {
		return a.viewError()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.ColorAccent).
		Padding(1, 3).
		Render(a.spinner.View() + " Computing report...")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewError() string {
	msg := lipgloss.NewStyle().Foreground(cli.ColorRed).Render("Error: " + a.err.Error())
	hint := lipgloss.NewStyle().Foreground(cli.ColorTextMuted).Render("press any key to exit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, msg+"\n\n"+hint)
}

func (a App) viewMain() string {
	contentH := a.contentHeight()
	end := a.offset + contentH
	if end > len(a.lines) {
		end = len(a.lines)
	}

	clip := lipgloss.NewStyle().MaxWidth(a.width)
	visible := make([]string, 0, contentH)
	for _, line := range a.lines[a.offset:end] {
		visible = append(visible, clip.Render(line))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cli.RenderTitle(a.title),
		strings.Join(visible, "\n"),
		a.statusBar(),
	)
}

func (a App) statusBar() string {
	last := a.offset + a.contentHeight()
	if last > len(a.lines) {
		last = len(a.lines)
	}

	left := " [j/k]scroll  [g/G]top/bottom  [q]uit"
	right := fmt.Sprintf("computed in %.1fs  lines %d-%d of %d ", a.loadTime.Seconds(), a.offset+1, last, len(a.lines))

	padding := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return lipgloss.NewStyle().Foreground(cli.ColorTextMuted).
		Render(left + strings.Repeat(" ", padding) + right)
}
