// Package tui is the terminal scene player: a braille preview of the running
// scene with transport controls and live audio meters.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/shapesound/shapesound/internal/audio"
	"github.com/shapesound/shapesound/internal/engine"
	"github.com/shapesound/shapesound/internal/render"
	"github.com/shapesound/shapesound/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	scrubStepMs   = 1000
	historyLen    = 120
	meterBarWidth = 16
)

// Options configures a player session.
type Options struct {
	Name      string
	FrameRate int
	// Levels reports audio meter readings; nil hides the meters.
	Levels func() audio.Levels
	Volume float64
}

type model struct {
	eng  *engine.Engine
	opts Options

	ops     []render.Op
	levels  audio.Levels
	history []float64
	volume  float64
	muted   bool
	idle    bool
	seekErr string

	width  int
	height int
}

// NewPlayer wraps a running engine in a bubbletea model.
func NewPlayer(eng *engine.Engine, opts Options) *model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	vol := opts.Volume
	if vol <= 0 {
		vol = 0.8
	}
	return &model{
		eng:     eng,
		opts:    opts,
		volume:  vol,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return m.tick() }

type tickMsg time.Time

func (m model) tick() tea.Cmd {
	interval := time.Second / time.Duration(m.opts.FrameRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.ops = m.eng.Tick()
		if m.opts.Levels != nil {
			m.levels = m.opts.Levels()
			m.history = append(m.history, m.levels.RMS)
			if len(m.history) > historyLen {
				m.history = m.history[1:]
			}
		}
		// an idle scene stops the frame loop; transport keys restart it
		if m.eng.Idle() {
			m.idle = true
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "escape":
		return m, tea.Quit
	case " ", "p":
		m.eng.TogglePause()
		return m, m.wake()
	case "left", "[":
		m.seekTo(m.eng.ElapsedMs() - scrubStepMs)
		return m, m.wake()
	case "right", "]":
		m.seekTo(m.eng.ElapsedMs() + scrubStepMs)
		return m, m.wake()
	case "r":
		m.seekTo(0)
		return m, m.wake()
	case "+", "=":
		m.volume = clamp01(m.volume + 0.05)
		m.applyVolume()
	case "-", "_":
		m.volume = clamp01(m.volume - 0.05)
		m.applyVolume()
	case "m":
		m.muted = !m.muted
		m.applyVolume()
	}
	return m, nil
}

// seekTo scrubs to an absolute time and resumes playback. A failed rebuild
// lands in the status line rather than being dropped.
func (m *model) seekTo(ms float64) {
	if err := m.eng.SeekMs(ms); err != nil {
		m.seekErr = err.Error()
		return
	}
	m.seekErr = ""
	m.eng.Resume()
}

// wake restarts the frame loop after the scene went idle.
func (m *model) wake() tea.Cmd {
	if !m.idle {
		return nil
	}
	m.idle = false
	return m.tick()
}

func (m *model) applyVolume() {
	v := m.volume
	if m.muted {
		v = 0
	}
	m.eng.SetMasterVolume(v)
}

func (m model) View() string {
	sc := m.eng.Scene()

	cols := m.width - 6
	rows := m.height - 10
	if cols < 40 {
		cols = 40
	}
	if rows < 8 {
		rows = 8
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("playing")
	if m.eng.Paused() {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	name := m.opts.Name
	if name == "" {
		name = "scene"
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(name), statusText))

	b.WriteString("   " + m.playbar(40) + "\n\n")

	sketch := viz.Sketch(m.ops, sc.Width, sc.Height, cols, rows)
	for _, line := range strings.Split(strings.TrimRight(sketch, "\n"), "\n") {
		b.WriteString("   " + dim.Render(line) + "\n")
	}

	if m.opts.Levels != nil {
		b.WriteString("\n" + m.viewMeters())
	}

	if len(sc.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range sc.Warnings {
			b.WriteString("   " + yellow.Render("! "+w) + "\n")
		}
	}
	if m.seekErr != "" {
		b.WriteString("\n   " + magenta.Render("! seek failed: "+m.seekErr) + "\n")
	}

	volStr := fmt.Sprintf("vol %.0f%%", m.volume*100)
	if m.muted {
		volStr = "muted"
	}
	b.WriteString("\n" + dim.Render("   space pause  ←→ seek  r restart  ± "+volStr+"  m mute  q quit") + "\n")

	return b.String()
}

func (m model) playbar(width int) string {
	dur := m.eng.DurationMs()
	elapsed := m.eng.ElapsedMs()
	progress := 0.0
	if dur > 0 {
		progress = elapsed / dur
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	timeStr := fmt.Sprintf("%s/%s", formatTime(elapsed), formatTime(dur))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", width-filled))
	return bar + " " + dim.Render(timeStr)
}

func (m model) viewMeters() string {
	var b strings.Builder
	b.WriteString("   " + meterBar("bass", m.levels.Bass, green) + "\n")
	b.WriteString("   " + meterBar("mid ", m.levels.Mid, yellow) + "\n")
	b.WriteString("   " + meterBar("high", m.levels.High, magenta) + "\n")

	if len(m.history) > 2 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(4),
			asciigraph.Width(50),
			asciigraph.Caption("level"),
		)
		for _, line := range strings.Split(graph, "\n") {
			b.WriteString("   " + dimmer.Render(line) + "\n")
		}
	}
	return b.String()
}

func meterBar(label string, v float64, style lipgloss.Style) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v * meterBarWidth)
	return dim.Render(label) + " " +
		style.Render(strings.Repeat("█", filled)) +
		dimmer.Render(strings.Repeat("░", meterBarWidth-filled))
}

func formatTime(ms float64) string {
	total := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RunPlayer starts the interactive player and blocks until quit.
func RunPlayer(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(NewPlayer(eng, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
