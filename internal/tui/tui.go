// Package tui renders the session through bubbletea. It consumes read-only
// snapshots and translates key presses into session intents; nothing in
// here owns game state.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/session"
)

// viewRadius is how many tiles the map shows in each direction.
const viewRadius = 4

var (
	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	biomeStyles = map[models.Biome]lipgloss.Style{
		models.BiomeWasteland:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8A7E66")),
		models.BiomeForest:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAF5F")),
		models.BiomeCity:        lipgloss.NewStyle().Foreground(lipgloss.Color("#8787AF")),
		models.BiomeFlux:        lipgloss.NewStyle().Foreground(lipgloss.Color("#AF5FFF")),
		models.BiomeRealityNode: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
	}

	biomeGlyphs = map[models.Biome]string{
		models.BiomeWasteland:   "░",
		models.BiomeForest:      "♣",
		models.BiomeCity:        "▓",
		models.BiomeFlux:        "≈",
		models.BiomeRealityNode: "◉",
	}

	unexploredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3C3C3C"))

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	logStyles = map[models.Severity]lipgloss.Style{
		models.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		models.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAF5F")),
		models.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")),
		models.SeverityDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
	}

	puzzleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Padding(1, 2)
)

// Named audio cues per feedback hint. Playback is a fire-and-forget
// terminal bell; a real audio channel would key off the same names.
var hintCues = map[session.Hint]string{
	session.HintSuccess: "chime",
	session.HintLevelUp: "fanfare",
	session.HintError:   "buzz",
}

type model struct {
	ctrl     *session.Controller
	snapshot models.Session
	input    textinput.Model
	logView  viewport.Model
	width    int
	height   int
	muted    bool
}

type opDoneMsg struct {
	res session.Result
}

type enrichDoneMsg struct{}

func NewModel(ctrl *session.Controller) model {
	ti := textinput.New()
	ti.Placeholder = "Your answer..."
	ti.CharLimit = 120
	ti.Width = 40

	return model{
		ctrl:     ctrl,
		snapshot: ctrl.Snapshot(),
		input:    ti,
	}
}

func (m model) Init() tea.Cmd {
	// The starting tile needs content too.
	return tea.Batch(textinput.Blink, m.enrich(m.snapshot.Player.Position))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width
		m.logView.Height = max(3, msg.Height-2*viewRadius-8)
		m.logView.SetContent(m.renderLog())
		m.logView.GotoBottom()

	case opDoneMsg:
		m.snapshot = m.ctrl.Snapshot()
		m.logView.SetContent(m.renderLog())
		m.logView.GotoBottom()
		m.playCues(msg.res.Hints)
		if m.snapshot.ActivePuzzle != nil {
			m.input.Reset()
			m.input.Focus()
		}
		if msg.res.NeedsEnrichment {
			return m, m.enrich(msg.res.EnrichTarget)
		}

	case enrichDoneMsg:
		m.snapshot = m.ctrl.Snapshot()
		m.logView.SetContent(m.renderLog())
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While a puzzle is up, the text input owns most keys.
	if m.snapshot.ActivePuzzle != nil {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			return m, m.do(func(ctx context.Context) session.Result {
				return m.ctrl.DismissPuzzle(ctx)
			})
		case tea.KeyEnter:
			answer := m.input.Value()
			if answer == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.do(func(ctx context.Context) session.Result {
				return m.ctrl.SubmitAnswer(ctx, answer)
			})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		return m, m.move(0, -1)
	case tea.KeyDown:
		return m, m.move(0, 1)
	case tea.KeyLeft:
		return m, m.move(-1, 0)
	case tea.KeyRight:
		return m, m.move(1, 0)
	case tea.KeyEnter:
		return m, m.interact()
	case tea.KeyCtrlS:
		return m, m.do(func(ctx context.Context) session.Result {
			return m.ctrl.Save(ctx)
		})
	case tea.KeyCtrlL:
		return m, m.do(func(ctx context.Context) session.Result {
			return m.ctrl.Load(ctx)
		})
	case tea.KeyRunes:
		switch msg.Runes[0] {
		case 'q':
			return m, tea.Quit
		case 'w':
			return m, m.move(0, -1)
		case 's':
			return m, m.move(0, 1)
		case 'a':
			return m, m.move(-1, 0)
		case 'd':
			return m, m.move(1, 0)
		case 'e':
			return m, m.interact()
		case 'm':
			m.muted = !m.muted
			return m, nil
		}
	}
	return m, nil
}

func (m model) move(dx, dy int) tea.Cmd {
	return m.do(func(ctx context.Context) session.Result {
		return m.ctrl.OnMove(ctx, dx, dy)
	})
}

func (m model) interact() tea.Cmd {
	target := m.snapshot.Player.Position
	return m.do(func(ctx context.Context) session.Result {
		return m.ctrl.OnInteract(ctx, target)
	})
}

func (m model) do(op func(context.Context) session.Result) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{res: op(context.Background())}
	}
}

func (m model) enrich(coord models.Coordinate) tea.Cmd {
	return func() tea.Msg {
		m.ctrl.EnrichTile(context.Background(), coord)
		return enrichDoneMsg{}
	}
}

// playCues emits the audio side channel for this operation's hints.
func (m model) playCues(hints []session.Hint) {
	if m.muted {
		return
	}
	for _, h := range hints {
		if _, ok := hintCues[h]; ok {
			fmt.Fprint(os.Stdout, "\a")
			return
		}
	}
}

func (m model) View() string {
	if m.snapshot.ActivePuzzle != nil {
		return "\n" + m.renderPuzzle() + "\n"
	}

	mapView := m.renderMap()
	sidebar := m.renderSidebar()
	top := lipgloss.JoinHorizontal(lipgloss.Top, mapView, sidebar)

	busy := ""
	if m.snapshot.Generating {
		busy = helpStyle.Render("  ...the world is resolving...")
	}

	help := helpStyle.Render("arrows/wasd move · e interact · ctrl+s save · ctrl+l load · m mute · q quit")

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		top,
		busy,
		m.logView.View(),
		help,
	) + "\n"
}

func (m model) renderMap() string {
	pos := m.snapshot.Player.Position
	var b strings.Builder
	for dy := -viewRadius; dy <= viewRadius; dy++ {
		for dx := -viewRadius; dx <= viewRadius; dx++ {
			coord := models.Coordinate{X: pos.X + dx, Y: pos.Y + dy}
			if dx == 0 && dy == 0 {
				b.WriteString(playerStyle.Render("@"))
				b.WriteString(" ")
				continue
			}
			tile, ok := m.snapshot.World[coord.Key()]
			if !ok {
				b.WriteString(unexploredStyle.Render("·"))
				b.WriteString(" ")
				continue
			}
			glyph := biomeGlyphs[tile.Biome]
			style := biomeStyles[tile.Biome]
			if !tile.Explored {
				style = unexploredStyle
			}
			if tile.HasPuzzle && !tile.IsSolved && tile.Explored {
				glyph = "?"
			}
			b.WriteString(style.Render(glyph))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderSidebar() string {
	p := m.snapshot.Player
	var b strings.Builder

	b.WriteString(titleStyle.Render("SURVEYOR") + "\n")
	b.WriteString(fmt.Sprintf("Position: %s\n", p.Position))
	b.WriteString(fmt.Sprintf("Level:    %d\n", p.Level))
	b.WriteString(fmt.Sprintf("XP:       %d\n\n", p.Experience))

	if tile, ok := m.snapshot.World[p.Position.Key()]; ok {
		b.WriteString(titleStyle.Render("SECTOR") + "\n")
		b.WriteString(fmt.Sprintf("Biome:   %s\n", tile.Biome))
		b.WriteString(fmt.Sprintf("Feature: %s\n\n", tile.VisualFeature))
	}

	b.WriteString(titleStyle.Render("PACK") + "\n")
	if len(p.Inventory) == 0 {
		b.WriteString("(empty)\n")
	} else {
		for _, item := range p.Inventory {
			b.WriteString("- " + item + "\n")
		}
	}

	width := max(24, m.width/4)
	return sidebarStyle.Width(width).Render(b.String())
}

func (m model) renderPuzzle() string {
	p := m.snapshot.ActivePuzzle
	var b strings.Builder

	b.WriteString(titleStyle.Render("ANOMALY") + "\n\n")
	b.WriteString(p.Question + "\n")
	if len(p.Options) > 0 {
		b.WriteString("\n")
		for i, opt := range p.Options {
			b.WriteString(fmt.Sprintf("  %d) %s\n", i+1, opt))
		}
	}
	if len(p.Citations) > 0 {
		b.WriteString("\n" + helpStyle.Render("Sources:") + "\n")
		for _, c := range p.Citations {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  %s: %s", c.Title, c.URI)) + "\n")
		}
	}
	b.WriteString("\n" + m.input.View() + "\n\n")
	b.WriteString(helpStyle.Render("enter submit · esc walk away"))

	width := max(50, m.width*3/4)
	return puzzleStyle.Width(width).Render(b.String())
}

func (m model) renderLog() string {
	var b strings.Builder
	for _, entry := range m.snapshot.Logs {
		style, ok := logStyles[entry.Severity]
		if !ok {
			style = logStyles[models.SeverityInfo]
		}
		b.WriteString(style.Render(entry.Message) + "\n")
	}
	return b.String()
}

// Run starts the TUI event loop.
func Run(ctrl *session.Controller) error {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
