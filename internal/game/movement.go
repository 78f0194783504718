package game

import (
	"strconv"
	"strings"
)

// MoveOutcome describes what happened at the destination of a move.
type MoveOutcome int

const (
	MoveSkipped MoveOutcome = iota // (0,0): stayed put
	MoveToEmpty
	MovePickedUpWeapon
	MoveTriggeredTrap
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveSkipped:
		return "skipped"
	case MoveToEmpty:
		return "moved"
	case MovePickedUpWeapon:
		return "picked_up_weapon"
	case MoveTriggeredTrap:
		return "triggered_trap"
	default:
		return "unknown"
	}
}

// MoveResult is the structured outcome of AttemptMove.
type MoveResult struct {
	Outcome MoveOutcome `json:"outcome"`
	From    Position    `json:"from"`
	To      Position    `json:"to"`
	Weapon  *Weapon     `json:"weapon,omitempty"`
	Trap    string      `json:"trap,omitempty"`
	Damage  int         `json:"damage,omitempty"`
	Sweep   Sweep       `json:"sweep"`
}

// moveHandler resolves a move onto a destination cell of one occupant kind.
type moveHandler func(m *Match, f *Fighter, dest Position, c Cell) (MoveResult, error)

var moveHandlers = map[OccupantKind]moveHandler{
	KindEmpty: func(m *Match, f *Fighter, dest Position, _ Cell) (MoveResult, error) {
		from := m.relocate(f, dest)
		return MoveResult{Outcome: MoveToEmpty, From: from, To: dest}, nil
	},
	KindFighter: func(_ *Match, _ *Fighter, dest Position, c Cell) (MoveResult, error) {
		return MoveResult{}, NewError(CodeBlockedByFighter, "at", dest.String(), "fighter", c.Fighter.Player.Mention)
	},
	KindWeapon: func(m *Match, f *Fighter, dest Position, c Cell) (MoveResult, error) {
		f.Weapon = c.Weapon.Weapon
		m.removeWeapon(c.Weapon)
		from := m.relocate(f, dest)
		w := f.Weapon
		return MoveResult{Outcome: MovePickedUpWeapon, From: from, To: dest, Weapon: &w}, nil
	},
	KindTrap: func(m *Match, f *Fighter, dest Position, c Cell) (MoveResult, error) {
		applyDamage(f, c.Trap.Damage)
		from := m.relocate(f, dest)
		return MoveResult{Outcome: MoveTriggeredTrap, From: from, To: dest, Trap: c.Trap.Name, Damage: c.Trap.Damage}, nil
	},
}

// AttemptMove moves the current fighter by (dx, dy). The step cost is
// |dx|+|dy| and comes out of the fighter's move budget; actions are not
// spent. The destination is clamped to the board per axis.
func (m *Match) AttemptMove(f *Fighter, dx, dy int) (MoveResult, error) {
	// Bound each axis first so the cost below cannot overflow.
	for _, d := range []int{dx, dy} {
		if d < -m.Config.MovesPerTurn || d > m.Config.MovesPerTurn {
			return MoveResult{}, NewError(CodeMoveBudgetExceeded,
				"requested", strings.TrimPrefix(strconv.Itoa(d), "-"),
				"remaining", strconv.Itoa(f.Moves))
		}
	}
	cost := abs(dx) + abs(dy)
	if cost > m.Config.MovesPerTurn || cost > f.Moves {
		return MoveResult{}, NewError(CodeMoveBudgetExceeded,
			"requested", strconv.Itoa(cost),
			"remaining", strconv.Itoa(f.Moves))
	}
	if cost == 0 {
		return MoveResult{Outcome: MoveSkipped, From: f.Pos, To: f.Pos}, nil
	}

	dest := f.Pos.Add(dx, dy).Clamped()
	if dest == f.Pos {
		// Pushing into a wall clamps back onto the same cell.
		return MoveResult{Outcome: MoveSkipped, From: f.Pos, To: dest}, nil
	}

	c := m.Grid.At(dest)
	res, err := moveHandlers[c.Kind](m, f, dest, c)
	if err != nil {
		return MoveResult{}, err
	}
	f.Moves -= cost
	if res.Damage > 0 {
		res.Sweep = m.SweepDead()
	}
	return res, nil
}

// relocate moves f to dest on the grid without any tile interaction and
// returns the old position. dest is overwritten.
func (m *Match) relocate(f *Fighter, dest Position) Position {
	from := f.Pos
	m.vacate(from)
	f.Pos = dest
	m.Grid.Place(fighterCell(f), dest)
	return from
}
