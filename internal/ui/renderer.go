package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/gridarena/internal/discovery"
	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/session"
)

// Color palette
var (
	floorColor = lipgloss.Color("#1a1a2e")

	emptyStyle = lipgloss.NewStyle().
			Background(floorColor).
			Foreground(lipgloss.Color("#2a2a44"))

	weaponStyle = lipgloss.NewStyle().
			Background(floorColor).
			Foreground(lipgloss.Color("#ffcc00")).
			Bold(true)

	trapStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#3a1a1a")).
			Foreground(lipgloss.Color("#ff4444")).
			Bold(true)

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	// Fighter colors, one per roster slot
	playerColors = []lipgloss.Color{
		lipgloss.Color("#00ff88"), // Green
		lipgloss.Color("#4488ff"), // Blue
		lipgloss.Color("#ff44ff"), // Magenta
		lipgloss.Color("#ff8844"), // Orange
	}

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	lobbyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#44aaff")).
			Bold(true)

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Bold(true).
			Blink(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// weaponGlyphs are the two-character board labels for pickups.
var weaponGlyphs = map[string]string{
	game.WeaponDagger: "dg",
	game.WeaponRapier: "ra",
	game.WeaponAxe:    "ax",
	game.WeaponSpear:  "sp",
}

// RenderBoard draws the 10x10 arena from a snapshot. Columns are lettered
// and rows numbered the same way coordinates are written.
func RenderBoard(snap *game.Snapshot, myID string) string {
	if snap == nil {
		return "No match in this channel.\nPress [c] to challenge."
	}

	slots := make(map[game.Position]int, len(snap.Fighters))
	for i, f := range snap.Fighters {
		slots[f.Pos] = i
	}
	cells := make(map[game.Position]game.CellState, len(snap.Cells))
	for _, c := range snap.Cells {
		cells[c.Pos] = c
	}

	var header strings.Builder
	header.WriteString("   ")
	for x := 1; x <= game.BoardSize; x++ {
		header.WriteString(fmt.Sprintf("%c ", 'a'+x-1))
	}
	rows := []string{axisStyle.Render(header.String())}

	for y := 1; y <= game.BoardSize; y++ {
		line := []string{axisStyle.Render(fmt.Sprintf("%2d ", y))}
		for x := 1; x <= game.BoardSize; x++ {
			pos := game.Position{X: x, Y: y}
			line = append(line, renderCell(snap, pos, cells, slots, myID))
		}
		rows = append(rows, strings.Join(line, ""))
	}

	return strings.Join(rows, "\n")
}

// renderCell renders a single board cell with the appropriate style.
// Each cell is 2 characters wide for a square-ish appearance.
func renderCell(
	snap *game.Snapshot,
	pos game.Position,
	cells map[game.Position]game.CellState,
	slots map[game.Position]int,
	myID string,
) string {
	c, ok := cells[pos]
	if !ok {
		return emptyStyle.Render("· ")
	}

	switch c.Kind {
	case game.KindFighter:
		idx, ok := slots[pos]
		if !ok {
			return emptyStyle.Render("??")
		}
		f := snap.Fighters[idx]
		color := playerColors[idx%len(playerColors)]
		style := lipgloss.NewStyle().Background(floorColor).Foreground(color).Bold(true)
		label := "P" + strconv.Itoa(idx+1)
		if f.Player.ID == myID {
			label = "██"
			style = style.Background(color)
		}
		return style.Render(label)
	case game.KindWeapon:
		glyph, ok := weaponGlyphs[c.Token]
		if !ok {
			glyph = "wp"
		}
		return weaponStyle.Render(glyph)
	case game.KindTrap:
		return trapStyle.Render("^^")
	}
	return emptyStyle.Render("  ")
}

// RenderHUD renders the heads-up display with the roster and match status.
func RenderHUD(snap *game.Snapshot, myID string, key session.Key) string {
	var parts []string

	parts = append(parts, titleStyle.Render("⚔ GRID ARENA"))
	parts = append(parts, dimStyle.Render("channel "+key.String()))
	parts = append(parts, "")

	if snap == nil {
		parts = append(parts, lobbyStyle.Render("No match yet"))
		parts = append(parts, "", helpLine())
		return hudBorderStyle.Render(strings.Join(parts, "\n"))
	}

	switch snap.Status {
	case game.StatusForming.String():
		parts = append(parts, lobbyStyle.Render(fmt.Sprintf("FORMING %d/4", len(snap.Fighters))))
		parts = append(parts, fmt.Sprintf("   %s presses [Enter] to start", snap.Initiator.Name))
	case game.StatusActive.String():
		turn := ""
		if snap.Current != nil {
			turn = snap.Current.Name
			if snap.Current.ID == myID {
				turn = "YOU"
			}
		}
		parts = append(parts, errorStyle.Render(fmt.Sprintf("ROUND %d", snap.Round)))
		parts = append(parts, fmt.Sprintf("   turn: %s", turn))
	case game.StatusConcluded.String():
		if snap.Victor != nil {
			parts = append(parts, winnerStyle.Render(fmt.Sprintf("%s WINS!", snap.Victor.Name)))
		} else {
			parts = append(parts, dimStyle.Render("Match over, no victor"))
		}
	}
	parts = append(parts, "")

	parts = append(parts, dimStyle.Render("Fighters:"))
	for i, f := range snap.Fighters {
		nameStyle := lipgloss.NewStyle().Foreground(playerColors[i%len(playerColors)])

		marker := "  "
		if f.Player.ID == myID {
			marker = "→ "
		}
		if snap.Current != nil && f.Player.ID == snap.Current.ID {
			marker = "▶ "
		}

		line := fmt.Sprintf("%s%d %s %s %s [%s mv%d act%d]",
			marker,
			i+1,
			nameStyle.Render(f.Player.Name),
			hpBar(f.HP, snap.MaxHP),
			f.Coord,
			f.Weapon.Name,
			f.Moves,
			f.Actions,
		)
		parts = append(parts, line)
	}

	parts = append(parts, "", helpLine())

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

func hpBar(hp, maxHP int) string {
	const width = 6
	if maxHP <= 0 {
		maxHP = 1
	}
	filled := hp * width / maxHP
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("%s%s %2d", strings.Repeat("█", filled), strings.Repeat("░", width-filled), hp)
}

func helpLine() string {
	return dimStyle.Render("WASD: move | F/G/X+dir: attack/shove/disarm | T+n: throw\n" +
		"P: pass | C: challenge | J: join | R: retire | Enter: start | E: end | Q: quit")
}

// RenderServers lists arenas found on the local network.
func RenderServers(servers []discovery.ServerInfo) string {
	if len(servers) == 0 {
		return dimStyle.Render("No arenas found on the local network.")
	}
	lines := []string{titleStyle.Render("Arenas on the local network:")}
	for i, s := range servers {
		lines = append(lines, fmt.Sprintf("%d) %s  %s  [%d forming, %d active, %d players]",
			i+1, lobbyStyle.Render(s.Name), s.Addr, s.Forming, s.Active, s.Players))
	}
	return strings.Join(lines, "\n")
}
