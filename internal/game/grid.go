package game

import (
	"fmt"
	"strconv"
)

// Position is a 1-based coordinate on the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by (dx, dy) without clamping.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Clamped returns p with each axis clamped independently to [1, BoardSize].
func (p Position) Clamped() Position {
	return Position{X: Clamp(p.X), Y: Clamp(p.Y)}
}

// InBounds reports whether p addresses a cell on the board.
func (p Position) InBounds() bool {
	return p.X >= 1 && p.X <= BoardSize && p.Y >= 1 && p.Y <= BoardSize
}

// String encodes the position with a letter for X (1 -> 'a') and a number for Y.
func (p Position) String() string {
	return string(rune('a'+p.X-1)) + strconv.Itoa(p.Y)
}

// ParsePosition decodes a coordinate produced by Position.String.
func ParsePosition(s string) (Position, error) {
	if len(s) < 2 {
		return Position{}, fmt.Errorf("coordinate %q too short", s)
	}
	x := int(s[0]-'a') + 1
	y, err := strconv.Atoi(s[1:])
	if err != nil {
		return Position{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	p := Position{X: x, Y: y}
	if !p.InBounds() {
		return Position{}, fmt.Errorf("coordinate %q off the board", s)
	}
	return p, nil
}

// Clamp limits v to [1, BoardSize].
func Clamp(v int) int {
	if v < 1 {
		return 1
	}
	if v > BoardSize {
		return BoardSize
	}
	return v
}

// Manhattan returns |dx|+|dy| between two positions.
func Manhattan(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// OccupantKind tags what a cell holds.
type OccupantKind int

const (
	KindEmpty OccupantKind = iota
	KindFighter
	KindWeapon
	KindTrap
)

func (k OccupantKind) String() string {
	switch k {
	case KindFighter:
		return "fighter"
	case KindWeapon:
		return "weapon"
	case KindTrap:
		return "trap"
	default:
		return "empty"
	}
}

func (k OccupantKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OccupantKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "fighter":
		*k = KindFighter
	case "weapon":
		*k = KindWeapon
	case "trap":
		*k = KindTrap
	case "empty":
		*k = KindEmpty
	default:
		return fmt.Errorf("unknown occupant kind %q", b)
	}
	return nil
}

// Cell is a tagged reference to whatever occupies a grid cell. Exactly one of
// the pointers matching Kind is set; the zero value is an empty cell.
type Cell struct {
	Kind    OccupantKind
	Fighter *Fighter
	Weapon  *WeaponPickup
	Trap    *Trap
}

func fighterCell(f *Fighter) Cell     { return Cell{Kind: KindFighter, Fighter: f} }
func weaponCell(w *WeaponPickup) Cell { return Cell{Kind: KindWeapon, Weapon: w} }
func trapCell(t *Trap) Cell           { return Cell{Kind: KindTrap, Trap: t} }

// Empty reports whether the cell has no occupant.
func (c Cell) Empty() bool {
	return c.Kind == KindEmpty
}

// Position returns the occupant's stored position.
func (c Cell) Position() Position {
	switch c.Kind {
	case KindFighter:
		return c.Fighter.Pos
	case KindWeapon:
		return c.Weapon.Pos
	case KindTrap:
		return c.Trap.Pos
	}
	return Position{}
}

// Token returns the occupant's render token.
func (c Cell) Token() string {
	switch c.Kind {
	case KindFighter:
		return c.Fighter.RenderToken()
	case KindWeapon:
		return c.Weapon.RenderToken()
	case KindTrap:
		return c.Trap.RenderToken()
	}
	return ""
}

// Grid is the fixed arena surface. Each cell holds at most one occupant.
type Grid struct {
	cells [BoardSize][BoardSize]Cell
}

// IsEmpty reports whether no occupant references the cell. p must already be clamped.
func (g *Grid) IsEmpty(p Position) bool {
	return g.cells[p.X-1][p.Y-1].Empty()
}

// At returns the cell at p.
func (g *Grid) At(p Position) Cell {
	return g.cells[p.X-1][p.Y-1]
}

// Place sets the cell reference at p, overwriting whatever was there.
// The occupant's own position must already equal p.
func (g *Grid) Place(c Cell, p Position) {
	g.cells[p.X-1][p.Y-1] = c
}

// Clear empties the cell at p.
func (g *Grid) Clear(p Position) {
	g.cells[p.X-1][p.Y-1] = Cell{}
}

// Occupied visits every non-empty cell, X-major then Y.
func (g *Grid) Occupied(fn func(p Position, c Cell)) {
	for x := 1; x <= BoardSize; x++ {
		for y := 1; y <= BoardSize; y++ {
			c := g.cells[x-1][y-1]
			if !c.Empty() {
				fn(Position{X: x, Y: y}, c)
			}
		}
	}
}

// emptyCells lists every empty cell in X-major order.
func (g *Grid) emptyCells() []Position {
	var out []Position
	for x := 1; x <= BoardSize; x++ {
		for y := 1; y <= BoardSize; y++ {
			if g.cells[x-1][y-1].Empty() {
				out = append(out, Position{X: x, Y: y})
			}
		}
	}
	return out
}
