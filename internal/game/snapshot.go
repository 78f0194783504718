package game

import (
	"fmt"
	"strings"
)

// Separators between a coordinate and its render token in the board path.
const (
	fighterSep = "~"
	itemSep    = "-"
)

// CellState is one occupied cell as seen by a renderer.
type CellState struct {
	Coord string       `json:"coord"`
	Pos   Position     `json:"pos"`
	Kind  OccupantKind `json:"kind"`
	Token string       `json:"token"`
}

// FighterState is a roster entry in a snapshot.
type FighterState struct {
	Player  Player   `json:"player"`
	Pos     Position `json:"pos"`
	Coord   string   `json:"coord"`
	HP      int      `json:"hp"`
	Moves   int      `json:"moves"`
	Actions int      `json:"actions"`
	Weapon  Weapon   `json:"weapon"`
	Token   string   `json:"token"`
}

// Snapshot is a deep copy of a match, safe to serialize and hand to other
// goroutines.
type Snapshot struct {
	MatchID   string         `json:"match_id"`
	Guild     string         `json:"guild"`
	Channel   string         `json:"channel"`
	Status    string         `json:"status"`
	Round     int            `json:"round"`
	Turn      int            `json:"turn"`
	Initiator Player         `json:"initiator"`
	Current   *Player        `json:"current,omitempty"`
	Victor    *Player        `json:"victor,omitempty"`
	MaxHP     int            `json:"max_hp"`
	Fighters  []FighterState `json:"fighters"`
	Cells     []CellState    `json:"cells"`
	Board     string         `json:"board"`
}

// Snapshot copies the match state for rendering.
func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		MatchID:   m.ID,
		Guild:     m.Guild,
		Channel:   m.Channel,
		Status:    m.Status.String(),
		Round:     m.Round,
		Turn:      m.Turn,
		Initiator: m.Initiator,
		MaxHP:     m.Config.StartingHP,
		Fighters:  make([]FighterState, 0, len(m.Roster)),
	}
	if cur := m.CurrentFighter(); cur != nil {
		p := cur.Player
		s.Current = &p
	}
	if m.Victor != nil {
		v := *m.Victor
		s.Victor = &v
	}
	for _, f := range m.Roster {
		s.Fighters = append(s.Fighters, FighterState{
			Player:  f.Player,
			Pos:     f.Pos,
			Coord:   f.Pos.String(),
			HP:      f.HP,
			Moves:   f.Moves,
			Actions: f.Actions,
			Weapon:  f.Weapon,
			Token:   f.Token,
		})
	}
	m.Grid.Occupied(func(p Position, c Cell) {
		s.Cells = append(s.Cells, CellState{Coord: p.String(), Pos: p, Kind: c.Kind, Token: c.Token()})
	})
	s.Board = EncodeBoard(s.Cells)
	return s
}

// EncodeBoard renders cells as a path of "/<coord>~<code>" for fighters and
// "/<coord>-<name>" for weapons and traps.
func EncodeBoard(cells []CellState) string {
	var b strings.Builder
	for _, c := range cells {
		sep := itemSep
		if c.Kind == KindFighter {
			sep = fighterSep
		}
		b.WriteString("/")
		b.WriteString(c.Coord)
		b.WriteString(sep)
		b.WriteString(c.Token)
	}
	return b.String()
}

// DecodeBoard parses a path produced by EncodeBoard. Item tokens naming a
// catalog weapon decode as weapons, anything else as traps.
func DecodeBoard(s string) ([]CellState, error) {
	var cells []CellState
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			continue
		}
		kind := KindFighter
		idx := strings.Index(part, fighterSep)
		if idx < 0 {
			kind = KindTrap
			idx = strings.Index(part, itemSep)
		}
		if idx < 0 {
			return nil, fmt.Errorf("board segment %q has no token", part)
		}
		coord, token := part[:idx], part[idx+1:]
		pos, err := ParsePosition(coord)
		if err != nil {
			return nil, fmt.Errorf("board segment %q: %w", part, err)
		}
		if kind == KindTrap {
			if _, ok := LookupWeapon(token); ok {
				kind = KindWeapon
			}
		}
		cells = append(cells, CellState{Coord: coord, Pos: pos, Kind: kind, Token: token})
	}
	return cells, nil
}
