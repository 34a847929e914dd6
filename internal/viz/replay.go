package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

const (
	canvasWidth  = 60
	canvasHeight = 24
	trailLength  = 400
	maxSpeed     = 64
	secondsInDay = 86400.0
	metersInAU   = 1.5e11
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
)

type TickMsg time.Time

// Model replays a completed trajectory store frame by frame.
type Model struct {
	store    *trajectory.Store
	title    string
	bodies   []string
	radii    map[string][]float64
	view     Viewport
	canvas   *Canvas
	frame    int
	speed    int
	running  bool
	selected int
	showHelp bool
	interval time.Duration
}

// NewModel prepares a replay of store. The store must belong to a run that
// has completed.
func NewModel(store *trajectory.Store, title string) Model {
	lo, hi := store.Bounds()

	bodies := make([]string, 0)
	radii := make(map[string][]float64)
	for _, name := range store.Bodies() {
		if store.IsCentral(name) {
			continue
		}
		bodies = append(bodies, name)
		if r, err := store.Radius(name); err == nil {
			radii[name] = r
		}
	}

	return Model{
		store:    store,
		title:    title,
		bodies:   bodies,
		radii:    radii,
		view:     NewViewport(lo, hi, canvasWidth, canvasHeight),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		speed:    1,
		running:  true,
		interval: time.Second / 30,
	}
}

func (m Model) Frame() int    { return m.frame }
func (m Model) Speed() int    { return m.speed }
func (m Model) Running() bool { return m.running }
func (m Model) Selected() string {
	if len(m.bodies) == 0 {
		return ""
	}
	return m.bodies[m.selected]
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.frame = 0
		case "[", "left":
			m.running = false
			m.seek(-1)
		case "]", "right":
			m.running = false
			m.seek(1)
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "tab":
			if len(m.bodies) > 0 {
				m.selected = (m.selected + 1) % len(m.bodies)
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.seek(m.speed)
			if m.frame == m.last() {
				m.running = false
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) last() int { return max(m.store.Len()-1, 0) }

func (m *Model) seek(delta int) {
	m.frame = max(0, min(m.frame+delta, m.last()))
}

// draw renders every body's recent trail and its current position.
func (m *Model) draw() {
	m.canvas.Clear()
	if m.store.Len() == 0 {
		return
	}

	start := max(0, m.frame-trailLength)
	for _, name := range m.store.Bodies() {
		px, py := 0, 0
		for i := start; i <= m.frame; i++ {
			p, _ := m.store.Sample(name, i)
			x, y := m.view.Map(p)
			if i > start {
				m.canvas.DrawLine(px, py, x, y)
			}
			px, py = x, y
		}

		r := 1
		if m.store.IsCentral(name) {
			r = 2
		}
		m.canvas.DrawDisc(px, py, r)
	}
}

func (m Model) View() string {
	m.draw()
	theme := CurrentTheme

	orbit := lipgloss.NewStyle().Foreground(theme.Orbit)
	canvasView := canvasStyle.Render(orbit.Render(m.canvas.String()))

	var s strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary)
	s.WriteString(title.Render(strings.ToUpper(m.title)) + "\n")

	status := StatusRunning.Render(fmt.Sprintf("PLAYING x%d", m.speed))
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	days := m.store.Time(m.frame) / secondsInDay
	s.WriteString(Metric("Day", fmt.Sprintf("%.1f", days)) + "\n")
	s.WriteString(Metric("Frame", fmt.Sprintf("%d/%d", m.frame+1, m.store.Len())) + "\n")
	s.WriteString(ProgressBar(float64(m.frame+1)/float64(max(m.store.Len(), 1)), 30) + "\n\n")

	if body := m.Selected(); body != "" {
		r := m.radii[body]
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render(body) + "\n")
		if m.frame < len(r) {
			s.WriteString(Metric("Radius", fmt.Sprintf("%.4f AU", r[m.frame]/metersInAU)) + "\n")
			s.WriteString(SparklineChart(r[:m.frame+1], 30) + "\n")
		}
		if p, ok := m.store.Sample(body, m.frame); ok {
			s.WriteString(Metric("x", fmt.Sprintf("%+.4f AU", p.X/metersInAU)) + "\n")
			s.WriteString(Metric("y", fmt.Sprintf("%+.4f AU", p.Y/metersInAU)) + "\n")
		}
	}

	s.WriteString("\n" + Separator(30) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause [ ]:Step +/-:Speed\nTab:Body T:Theme ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume replay      ║
║  [ / ←    - Previous frame           ║
║  ] / →    - Next frame               ║
║  + / -    - Double/halve speed       ║
║  Tab      - Select tracked body      ║
║  R        - Restart                  ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run replays store until the user quits.
func Run(store *trajectory.Store, title string) error {
	_, err := tea.NewProgram(NewModel(store, title), tea.WithAltScreen()).Run()
	return err
}
