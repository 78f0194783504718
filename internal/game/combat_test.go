package game

import "testing"

func equip(t *testing.T, f *Fighter, name string) {
	t.Helper()
	w, ok := LookupWeapon(name)
	if !ok {
		t.Fatalf("no weapon %q", name)
	}
	f.Weapon = w
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"up", DirUp, true},
		{"DOWN", DirDown, true},
		{" Left ", DirLeft, true},
		{"right", DirRight, true},
		{"north", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && !IsCode(err, CodeInvalidDirection) {
			t.Errorf("ParseDirection(%q): expected InvalidDirection, got %v", tt.in, err)
		}
	}
}

func TestUnarmedAttackAdjacent(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 6, Y: 5})

	res, err := m.Attack(a, DirRight)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if b.HP != 11 {
		t.Errorf("expected B at 11 hp, got %d", b.HP)
	}
	if a.Actions != 1 {
		t.Errorf("expected A at 1 action, got %d", a.Actions)
	}
	if m.CurrentFighter() != a || res.TurnEnded {
		t.Error("turn should stay with A")
	}
	if res.Damage != 1 || res.Target == nil || res.Target.ID != b.Player.ID {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAttackNoTarget(t *testing.T) {
	m := newStartedMatch(t, 2)
	a := m.Roster[0]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 7, Y: 5})

	if _, err := m.Attack(a, DirRight); !IsCode(err, CodeNoTargetInDirection) {
		t.Fatalf("expected NoTargetInDirection, got %v", err)
	}
	if a.Actions != 2 {
		t.Error("a failed attack must not spend an action")
	}

	equip(t, a, WeaponSpear)
	if _, err := m.Attack(a, DirRight); err != nil {
		t.Errorf("spear reaches two cells: %v", err)
	}
}

func TestFindTargetClampsAtWall(t *testing.T) {
	m := newStartedMatch(t, 2)
	b := m.Roster[1]
	arrange(m, Position{X: 8, Y: 3}, Position{X: 10, Y: 3})

	// Range 5 from h3 walks i3, j3, then keeps re-checking j3.
	got := FindTargetAlongDirection(&m.Grid, Position{X: 8, Y: 3}, DirRight.Offset(), 5)
	if got != b {
		t.Fatal("expected the fighter on the edge cell")
	}

	// From the edge, the first clamped step lands back on the scanning cell.
	a := m.Roster[0]
	arrange(m, Position{X: 10, Y: 3}, Position{X: 5, Y: 5})
	got = FindTargetAlongDirection(&m.Grid, Position{X: 10, Y: 3}, DirRight.Offset(), 3)
	if got != a {
		t.Errorf("scan from the wall should find the fighter on the edge, got %v", got)
	}
}

func TestAttackIntoWallHitsSelf(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 1, Y: 5}, Position{X: 5, Y: 5})

	res, err := m.Attack(a, DirLeft)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.Target == nil || res.Target.ID != a.Player.ID {
		t.Fatalf("expected A to hit themself, got %+v", res.Target)
	}
	if a.HP != 11 || b.HP != 12 {
		t.Errorf("expected A at 11 and B at 12, got %d and %d", a.HP, b.HP)
	}
	if a.Actions != 1 {
		t.Errorf("the attack should spend an action, got %d left", a.Actions)
	}
}

func TestSecondActionEndsTurn(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 5, Y: 4})

	if _, err := m.Attack(a, DirUp); err != nil {
		t.Fatalf("attack 1: %v", err)
	}
	res, err := m.Attack(a, DirUp)
	if err != nil {
		t.Fatalf("attack 2: %v", err)
	}
	if !res.TurnEnded || m.CurrentFighter() != b {
		t.Fatal("turn should pass to B")
	}
	if a.Actions != 0 {
		t.Errorf("A's budget should stay spent until the round wraps, got %d", a.Actions)
	}
	if b.HP != 10 {
		t.Errorf("expected B at 10 hp, got %d", b.HP)
	}
}

func TestThrow(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]

	arrange(m, Position{X: 2, Y: 2}, Position{X: 6, Y: 4})
	if _, err := m.Throw(a, b.Player.Mention); !IsCode(err, CodeWrongWeaponEquipped) {
		t.Fatalf("expected WrongWeaponEquipped, got %v", err)
	}

	equip(t, a, WeaponDagger)
	if _, err := m.Throw(a, "<@ghost>"); !IsCode(err, CodeTargetNotFound) {
		t.Errorf("expected TargetNotFound, got %v", err)
	}
	if _, err := m.Throw(a, a.Player.Mention); !IsCode(err, CodeTargetNotFound) {
		t.Errorf("throwing at yourself: expected TargetNotFound, got %v", err)
	}

	_, err := m.Throw(a, b.Player.Mention)
	if !IsCode(err, CodeTargetOutOfRange) {
		t.Fatalf("distance 6: expected TargetOutOfRange, got %v", err)
	}
	if b.HP != 12 || a.Actions != 2 {
		t.Fatal("rejected throw must not change state")
	}

	arrange(m, Position{X: 2, Y: 2}, Position{X: 5, Y: 4})
	res, err := m.Throw(a, b.Player.Mention)
	if err != nil {
		t.Fatalf("distance 5: %v", err)
	}
	if res.Distance != 5 || res.Damage != 2 || b.HP != 10 {
		t.Errorf("unexpected throw %+v, hp %d", res, b.HP)
	}
}

func TestShove(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 3, Y: 5}, Position{X: 4, Y: 5})

	if _, err := m.Shove(a, DirRight); !IsCode(err, CodeWrongWeaponEquipped) {
		t.Fatalf("expected WrongWeaponEquipped, got %v", err)
	}

	equip(t, a, WeaponAxe)
	if _, err := m.Shove(a, DirUp); !IsCode(err, CodeNoTargetInDirection) {
		t.Fatalf("expected NoTargetInDirection, got %v", err)
	}

	res, err := m.Shove(a, DirRight)
	if err != nil {
		t.Fatalf("shove: %v", err)
	}
	want := Position{X: 6, Y: 5}
	if b.Pos != want || res.PushedTo == nil || *res.PushedTo != want {
		t.Errorf("expected B pushed to %s, got %s", want, b.Pos)
	}
	if b.HP != 11 || res.Damage != 1 {
		t.Errorf("shove deals 1 damage, B at %d", b.HP)
	}
	if !m.Grid.IsEmpty(Position{X: 4, Y: 5}) {
		t.Error("B's old cell should be empty")
	}
	checkGridConsistent(t, m)
}

func TestShoveIgnoresTilesAndClamps(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	equip(t, a, WeaponAxe)

	// Destination holds a trap: the push is refused, damage still lands.
	arrange(m, Position{X: 3, Y: 5}, Position{X: 4, Y: 5})
	tr := &Trap{Pos: Position{X: 6, Y: 5}, Name: TrapSpikes, Damage: 2}
	m.Grid.Place(trapCell(tr), tr.Pos)
	m.Traps = append(m.Traps, tr)

	res, err := m.Shove(a, DirRight)
	if err != nil {
		t.Fatalf("shove: %v", err)
	}
	if res.PushedTo != nil || b.Pos != (Position{X: 4, Y: 5}) {
		t.Errorf("occupied destination should leave B in place, got %s", b.Pos)
	}
	if b.HP != 11 {
		t.Errorf("trap must not fire on a push, hp %d", b.HP)
	}

	// Pushing toward the wall stops on the edge.
	arrange(m, Position{X: 8, Y: 2}, Position{X: 9, Y: 2})
	res, err = m.Shove(a, DirRight)
	if err != nil {
		t.Fatalf("shove: %v", err)
	}
	if b.Pos != (Position{X: 10, Y: 2}) {
		t.Errorf("expected clamp to j2, got %s", b.Pos)
	}
	checkGridConsistent(t, m)
}

func TestDisarm(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 5, Y: 6})
	equip(t, b, WeaponAxe)

	if _, err := m.Disarm(a, DirDown); !IsCode(err, CodeWrongWeaponEquipped) {
		t.Fatalf("expected WrongWeaponEquipped, got %v", err)
	}

	equip(t, a, WeaponRapier)
	res, err := m.Disarm(a, DirDown)
	if err != nil {
		t.Fatalf("disarm: %v", err)
	}
	if b.Weapon != Unarmed() {
		t.Errorf("expected B unarmed, got %+v", b.Weapon)
	}
	if b.HP != 12 || res.Damage != 0 {
		t.Error("disarm deals no damage")
	}
	if a.Actions != 1 {
		t.Errorf("disarm spends an action, got %d", a.Actions)
	}
}

func TestPass(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]

	m.Pass(a)
	res := m.Pass(a)
	if !res.TurnEnded || m.CurrentFighter() != b {
		t.Error("two passes should end the turn")
	}
}

func TestLethalAttackConcludesMatch(t *testing.T) {
	m := newStartedMatch(t, 2)
	a, b := m.Roster[0], m.Roster[1]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 4, Y: 5})
	b.HP = 1

	res, err := m.Attack(a, DirLeft)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if !res.Sweep.Concluded || m.Status != StatusConcluded {
		t.Fatal("match should conclude")
	}
	if res.Sweep.Victor == nil || res.Sweep.Victor.ID != a.Player.ID {
		t.Errorf("expected %s to win, got %+v", a.Player.ID, res.Sweep.Victor)
	}
	if len(m.Roster) != 1 || !m.Grid.IsEmpty(Position{X: 4, Y: 5}) {
		t.Error("dead fighter should leave the roster and grid")
	}
}

func TestKillEarlierFighterKeepsTurnIndexValid(t *testing.T) {
	m := newStartedMatch(t, 3)
	a, b, c := m.Roster[0], m.Roster[1], m.Roster[2]
	arrange(m, Position{X: 5, Y: 5}, Position{X: 8, Y: 8}, Position{X: 6, Y: 5})

	m.EndTurn()
	m.EndTurn()
	if m.CurrentFighter() != c {
		t.Fatal("expected C's turn")
	}

	a.HP = 1
	if _, err := m.Attack(c, DirLeft); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if m.CurrentFighter() != c {
		t.Fatal("C keeps the turn after killing an earlier fighter")
	}
	if m.Turn != 1 {
		t.Errorf("expected index 1 after the splice, got %d", m.Turn)
	}

	if _, err := m.Attack(c, DirUp); !IsCode(err, CodeNoTargetInDirection) {
		t.Fatalf("expected NoTargetInDirection, got %v", err)
	}
	m.Pass(c)
	if m.CurrentFighter() != b || m.Round != 2 {
		t.Errorf("expected B to open round 2, got round %d", m.Round)
	}
}
