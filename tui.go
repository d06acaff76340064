package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"agogo/layout"
	"agogo/shape"
	"agogo/shutdown"
	"agogo/sound"
)

// TUI message types
type StrikeMsg struct{ Mouth int }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

const (
	flashTime = 150 * time.Millisecond

	headerRows = 2
	footerRows = 2

	buttonWidth  = 11 // inner width; the border adds two columns
	buttonHeight = 5
	buttonGap    = 2
)

// buttonOrder is the left-to-right order of the button screen.
var buttonOrder = [sound.Mouths]int{4, 3, 2, 1}

type palette struct {
	text, dim, help lipgloss.Color
	bell            lipgloss.Color
	flash           lipgloss.Color
	mouths          [sound.Mouths + 1]lipgloss.Color
}

var (
	lightPalette = palette{
		text: "235", dim: "243", help: "245", bell: "250", flash: "232",
		mouths: [sound.Mouths + 1]lipgloss.Color{"", "178", "27", "160", "28"},
	}
	darkPalette = palette{
		text: "252", dim: "245", help: "239", bell: "238", flash: "231",
		mouths: [sound.Mouths + 1]lipgloss.Color{"", "226", "33", "196", "46"},
	}
)

type tuiModel struct {
	triggers   [sound.Mouths]func()
	layout     *layout.Layout
	imageMode  bool
	dark       bool
	overlay    bool
	deviceLine string

	width, height int
	strikes       int
	lastMouth     int
	flash         [sound.Mouths + 1]time.Time
	now           time.Time
	styles        map[[2]lipgloss.Color]lipgloss.Style
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func newTUIModel(inst *instrument, opts uiOptions) tuiModel {
	return tuiModel{
		triggers:   inst.triggers,
		layout:     opts.layout,
		imageMode:  opts.imageMode,
		dark:       opts.dark,
		overlay:    opts.overlay,
		deviceLine: inst.deviceLine(),
		styles:     make(map[[2]lipgloss.Color]lipgloss.Style),
	}
}

// tuiSink forwards instrument events to the running program.
type tuiSink struct{}

func (tuiSink) Strike(mouth int) {
	// Strikes fire from inside Update; Send from there would block.
	go tuiSend(StrikeMsg{Mouth: mouth})
}

func (tuiSink) DeviceLine(text string) {
	tuiSend(DeviceLineMsg{Text: text})
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func runTUI(inst *instrument, opts uiOptions) error {
	p := tea.NewProgram(newTUIModel(inst, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
	setSink(tuiSink{})
	defer func() {
		setSink(nil)
		tuiMu.Lock()
		tuiProgram = nil
		tuiMu.Unlock()
	}()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "1", "2", "3", "4":
			m.strike(int(msg.String()[0] - '0'))
		case "i":
			m.imageMode = !m.imageMode
		case "d":
			m.dark = !m.dark
		case "o":
			m.overlay = !m.overlay
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if mouth := m.mouthAt(msg.X, msg.Y); mouth != 0 {
				m.strike(mouth)
			}
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case StrikeMsg:
		m.strikes++
		m.lastMouth = msg.Mouth
		if msg.Mouth >= 1 && msg.Mouth <= sound.Mouths {
			m.flash[msg.Mouth] = time.Now()
		}

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) strike(mouth int) {
	if mouth < 1 || mouth > sound.Mouths || m.triggers[mouth-1] == nil {
		return
	}
	m.triggers[mouth-1]()
}

func (m tuiModel) lit(mouth int) bool {
	now := m.now
	if now.IsZero() {
		now = time.Now()
	}
	return now.Sub(m.flash[mouth]) < flashTime
}

func (m tuiModel) palette() palette {
	if m.dark {
		return darkPalette
	}
	return lightPalette
}

// mouthAt maps a terminal cell to the mouth drawn there.
func (m tuiModel) mouthAt(x, y int) int {
	if m.imageMode {
		p, canvas, ok := m.imagePoint(x, y)
		if !ok {
			return 0
		}
		return m.layout.HitTest(p, canvas)
	}
	left, top := m.buttonOrigin()
	if y < top || y >= top+buttonHeight+2 {
		return 0
	}
	for i, mouth := range buttonOrder {
		x0 := left + i*(buttonWidth+2+buttonGap)
		if x >= x0 && x < x0+buttonWidth+2 {
			return mouth
		}
	}
	return 0
}

// imageArea is the block of cells used by the image screen. Each cell holds
// two square pixels stacked vertically.
func (m tuiModel) imageArea() (rows, cols int) {
	return max(0, m.height-headerRows-footerRows), max(0, m.width)
}

func (m tuiModel) imagePoint(x, y int) (shape.Point, shape.Size, bool) {
	rows, cols := m.imageArea()
	row := y - headerRows
	if row < 0 || row >= rows || x < 0 || x >= cols {
		return shape.Point{}, shape.Size{}, false
	}
	canvas := shape.Size{Width: float64(cols), Height: float64(rows * 2)}
	// Either half of the cell; use the middle.
	return shape.Point{X: float64(x) + 0.5, Y: float64(row*2) + 1}, canvas, true
}

func (m tuiModel) buttonOrigin() (left, top int) {
	total := sound.Mouths*(buttonWidth+2) + (sound.Mouths-1)*buttonGap
	left = max(0, (m.width-total)/2)
	rows := max(0, m.height-headerRows-footerRows)
	top = headerRows + max(0, (rows-buttonHeight-2)/2)
	return left, top
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	pal := m.palette()

	var b strings.Builder
	title := lipgloss.NewStyle().Foreground(pal.text).Bold(true).Render("agogô")
	mode := "image"
	if !m.imageMode {
		mode = "buttons"
	}
	status := lipgloss.NewStyle().Foreground(pal.dim).Render(fmt.Sprintf("  %s | strikes: %d | %s", mode, m.strikes, m.deviceLine))
	b.WriteString(title + status + "\n\n")

	if m.imageMode {
		b.WriteString(m.renderImage(pal))
	} else {
		b.WriteString(m.renderButtons(pal))
	}

	helpStyle := lipgloss.NewStyle().Foreground(pal.help)
	boldStyle := lipgloss.NewStyle().Foreground(pal.help).Bold(true)
	b.WriteString("\n")
	b.WriteString(boldStyle.Render("1-4") + helpStyle.Render(" strike  ") +
		boldStyle.Render("i") + helpStyle.Render(" image/buttons  ") +
		boldStyle.Render("d") + helpStyle.Render(" dark  ") +
		boldStyle.Render("o") + helpStyle.Render(" regions  ") +
		boldStyle.Render("q") + helpStyle.Render(" quit  ") +
		helpStyle.Render("agogo "+version))
	return b.String()
}

func (m tuiModel) renderButtons(pal palette) string {
	left, top := m.buttonOrigin()
	var b strings.Builder
	for range top - headerRows {
		b.WriteString("\n")
	}

	boxes := make([]string, 0, len(buttonOrder)*2)
	for i, mouth := range buttonOrder {
		border := pal.mouths[mouth]
		label := lipgloss.NewStyle().Foreground(pal.text).Bold(true)
		box := lipgloss.NewStyle().
			Width(buttonWidth).
			Height(buttonHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border)
		if m.lit(mouth) {
			box = box.Background(border)
			label = label.Foreground(pal.flash).Background(border)
		}
		if i > 0 {
			boxes = append(boxes, strings.Repeat(" ", buttonGap))
		}
		boxes = append(boxes, box.Render(label.Render(fmt.Sprint(mouth))))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	indent := strings.Repeat(" ", left)
	for _, line := range strings.Split(row, "\n") {
		b.WriteString(indent + line + "\n")
	}

	rows, _ := m.imageArea()
	for range rows - (top - headerRows) - (buttonHeight + 2) {
		b.WriteString("\n")
	}
	return b.String()
}

// renderImage draws the regions with half-block characters, two pixels per
// cell, using the same hit test as mouse clicks.
func (m tuiModel) renderImage(pal palette) string {
	rows, cols := m.imageArea()
	canvas := shape.Size{Width: float64(cols), Height: float64(rows * 2)}

	color := func(x, y int) lipgloss.Color {
		mouth := m.layout.HitTest(shape.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, canvas)
		switch {
		case mouth == 0:
			return ""
		case m.lit(mouth):
			return pal.flash
		case m.overlay:
			return pal.mouths[mouth]
		}
		return pal.bell
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for x := 0; x < cols; x++ {
			top, bot := color(x, row*2), color(x, row*2+1)
			switch {
			case top == "" && bot == "":
				b.WriteString(" ")
			case top == bot:
				b.WriteString(m.style(top, "").Render("█"))
			case bot == "":
				b.WriteString(m.style(top, "").Render("▀"))
			case top == "":
				b.WriteString(m.style(bot, "").Render("▄"))
			default:
				b.WriteString(m.style(top, bot).Render("▀"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m tuiModel) style(fg, bg lipgloss.Color) lipgloss.Style {
	key := [2]lipgloss.Color{fg, bg}
	if s, ok := m.styles[key]; ok {
		return s
	}
	s := lipgloss.NewStyle().Foreground(fg)
	if bg != "" {
		s = s.Background(bg)
	}
	if m.styles != nil {
		m.styles[key] = s
	}
	return s
}
