package game

import (
	"math"
	"testing"
)

func TestMoveStaysOnBoard(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	blocker := Position{X: 1, Y: 1}

	for x := 2; x < BoardSize; x++ {
		for y := 2; y < BoardSize; y++ {
			for dx := -4; dx <= 4; dx++ {
				for dy := -4; dy <= 4; dy++ {
					if abs(dx)+abs(dy) > 4 {
						continue
					}
					arrange(m, Position{X: x, Y: y}, blocker)
					a.Moves = 4

					res, err := m.AttemptMove(a, dx, dy)
					if IsCode(err, CodeBlockedByFighter) {
						continue
					}
					if err != nil {
						t.Fatalf("move (%d,%d) from (%d,%d): %v", dx, dy, x, y, err)
					}
					if !res.To.InBounds() || !a.Pos.InBounds() {
						t.Fatalf("move (%d,%d) from (%d,%d) left the board: %s", dx, dy, x, y, a.Pos)
					}
				}
			}
		}
	}
}

func TestMoveToEmpty(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 3, Y: 3}, Position{X: 8, Y: 8})

	res, err := m.AttemptMove(a, 1, 2)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Outcome != MoveToEmpty {
		t.Errorf("expected MoveToEmpty, got %s", res.Outcome)
	}
	want := Position{X: 4, Y: 5}
	if a.Pos != want || res.To != want || res.From != (Position{X: 3, Y: 3}) {
		t.Errorf("expected %s, got fighter at %s result %+v", want, a.Pos, res)
	}
	if !m.Grid.IsEmpty(Position{X: 3, Y: 3}) {
		t.Error("old cell should be cleared")
	}
	if a.Moves != 1 {
		t.Errorf("expected 1 move left, got %d", a.Moves)
	}
	if a.Actions != 2 {
		t.Errorf("moving must not spend actions, got %d", a.Actions)
	}
	checkGridConsistent(t, m)
}

func TestMoveBudget(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 10, Y: 10})

	if _, err := m.AttemptMove(a, 3, 2); !IsCode(err, CodeMoveBudgetExceeded) {
		t.Fatalf("expected MoveBudgetExceeded, got %v", err)
	}
	if a.Pos != (Position{X: 5, Y: 5}) || a.Moves != 4 {
		t.Fatal("rejected move must not change state")
	}

	if _, err := m.AttemptMove(a, -3, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := m.AttemptMove(a, 0, 2); !IsCode(err, CodeMoveBudgetExceeded) {
		t.Errorf("expected MoveBudgetExceeded with 1 move left, got %v", err)
	}
	if _, err := m.AttemptMove(a, 0, -1); err != nil {
		t.Errorf("last step should fit the budget: %v", err)
	}
}

func TestMoveBlockedByFighter(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 6, Y: 5})

	_, err := m.AttemptMove(a, 1, 0)
	if !IsCode(err, CodeBlockedByFighter) {
		t.Fatalf("expected BlockedByFighter, got %v", err)
	}
	if a.Pos != (Position{X: 5, Y: 5}) || a.Moves != 4 {
		t.Error("blocked move must not relocate or spend budget")
	}
	checkGridConsistent(t, m)
}

func TestMoveSkip(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 10, Y: 5}, Position{X: 1, Y: 1})

	res, err := m.AttemptMove(a, 0, 0)
	if err != nil || res.Outcome != MoveSkipped {
		t.Fatalf("expected skipped, got %+v, %v", res, err)
	}

	res, err = m.AttemptMove(a, 2, 0)
	if err != nil || res.Outcome != MoveSkipped {
		t.Fatalf("moving into the wall should clamp back to a skip, got %+v, %v", res, err)
	}
	if a.Moves != 4 {
		t.Errorf("skips cost nothing, got %d moves", a.Moves)
	}
}

func TestMoveClampsAtEdge(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 9, Y: 2}, Position{X: 1, Y: 10})

	if _, err := m.AttemptMove(a, 3, -1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if a.Pos != (Position{X: 10, Y: 1}) {
		t.Errorf("expected clamp to j1, got %s", a.Pos)
	}
}

func TestMovePicksUpWeapon(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 2, Y: 2}, Position{X: 9, Y: 9})

	spear, _ := LookupWeapon(WeaponSpear)
	w := &WeaponPickup{Pos: Position{X: 2, Y: 4}, Weapon: spear}
	m.Grid.Place(weaponCell(w), w.Pos)
	m.Weapons = append(m.Weapons, w)

	res, err := m.AttemptMove(a, 0, 2)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Outcome != MovePickedUpWeapon || res.Weapon == nil || *res.Weapon != spear {
		t.Errorf("unexpected result %+v", res)
	}
	if a.Weapon != spear {
		t.Errorf("expected spear equipped, got %+v", a.Weapon)
	}
	if len(m.Weapons) != 0 {
		t.Error("pickup should leave the active set")
	}
	m.Grid.Occupied(func(p Position, c Cell) {
		if c.Kind == KindWeapon {
			t.Errorf("weapon still on the grid at %s", p)
		}
	})
	checkGridConsistent(t, m)
}

func TestMoveTriggersTrap(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 4, Y: 4}, Position{X: 9, Y: 9})

	tr := &Trap{Pos: Position{X: 5, Y: 4}, Name: TrapSpikes, Damage: 2}
	m.Grid.Place(trapCell(tr), tr.Pos)
	m.Traps = append(m.Traps, tr)

	res, err := m.AttemptMove(a, 1, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Outcome != MoveTriggeredTrap || res.Damage != 2 || res.Trap != TrapSpikes {
		t.Errorf("unexpected result %+v", res)
	}
	if a.HP != 10 {
		t.Errorf("expected 10 hp, got %d", a.HP)
	}
	if a.Pos != tr.Pos {
		t.Errorf("fighter should stand on the trap, at %s", a.Pos)
	}
	if len(m.Traps) != 1 {
		t.Error("traps persist after triggering")
	}

	if _, err := m.AttemptMove(a, 1, 0); err != nil {
		t.Fatalf("step off: %v", err)
	}
	if c := m.Grid.At(tr.Pos); c.Kind != KindTrap || c.Trap != tr {
		t.Error("trap should be back on its cell once vacated")
	}

	if _, err := m.AttemptMove(a, -1, 0); err != nil {
		t.Fatalf("step back: %v", err)
	}
	if a.HP != 8 {
		t.Errorf("trap should fire again, hp %d", a.HP)
	}
}

func TestLethalTrapConcludesMatch(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 4, Y: 4}, Position{X: 9, Y: 9})
	a.HP = 2

	tr := &Trap{Pos: Position{X: 4, Y: 5}, Name: TrapSpikes, Damage: 2}
	m.Grid.Place(trapCell(tr), tr.Pos)
	m.Traps = append(m.Traps, tr)

	res, err := m.AttemptMove(a, 0, 1)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !res.Sweep.Concluded || res.Sweep.Victor == nil || res.Sweep.Victor.ID != b.Player.ID {
		t.Fatalf("expected %s to win, got %+v", b.Player.ID, res.Sweep)
	}
	if c := m.Grid.At(tr.Pos); c.Kind != KindTrap {
		t.Error("dead fighter's cell should show the trap again")
	}
}

func TestMoveRejectsHugeDeltas(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	start := Position{X: 5, Y: 5}
	arrange(m, start, Position{X: 10, Y: 10})

	tests := []struct{ dx, dy int }{
		{math.MaxInt, 1},
		{math.MinInt, 0},
		{0, math.MaxInt},
		{1, math.MinInt},
		{5, 0},
		{0, -5},
	}
	for _, tt := range tests {
		if _, err := m.AttemptMove(a, tt.dx, tt.dy); !IsCode(err, CodeMoveBudgetExceeded) {
			t.Errorf("move (%d,%d): expected MoveBudgetExceeded, got %v", tt.dx, tt.dy, err)
		}
		if a.Pos != start || a.Moves != 4 {
			t.Fatalf("move (%d,%d) changed state: pos %s, moves %d", tt.dx, tt.dy, a.Pos, a.Moves)
		}
	}
	checkGridConsistent(t, m)
}
