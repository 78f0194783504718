package game

import "testing"

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{X: 1, Y: 1}, "a1"},
		{Position{X: 3, Y: 7}, "c7"},
		{Position{X: 10, Y: 10}, "j10"},
	}
	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.pos, got, tt.want)
		}
		back, err := ParsePosition(tt.want)
		if err != nil || back != tt.pos {
			t.Errorf("ParsePosition(%q) = %+v, %v", tt.want, back, err)
		}
	}

	for _, bad := range []string{"", "a", "k1", "a0", "a11", "ax"} {
		if _, err := ParsePosition(bad); err == nil {
			t.Errorf("ParsePosition(%q) should fail", bad)
		}
	}
}

func TestSnapshotBoardRoundTrip(t *testing.T) {
	m := newTestMatch(t, 4)
	if err := m.Start(m.Initiator); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := m.Snapshot()
	if len(snap.Cells) != 4+4+4 {
		t.Fatalf("expected 12 occupied cells, got %d", len(snap.Cells))
	}

	cells, err := DecodeBoard(snap.Board)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cells) != len(snap.Cells) {
		t.Fatalf("decoded %d cells, want %d", len(cells), len(snap.Cells))
	}
	for i, c := range cells {
		want := snap.Cells[i]
		if c.Pos != want.Pos || c.Kind != want.Kind || c.Token != want.Token {
			t.Errorf("cell %d: got %+v, want %+v", i, c, want)
		}
	}

	for _, f := range m.Roster {
		found := false
		for _, c := range cells {
			if c.Kind == KindFighter && c.Token == f.Token {
				found = c.Pos == f.Pos
			}
		}
		if !found {
			t.Errorf("fighter %s not decoded at %s", f.Player.ID, f.Pos)
		}
	}
}

func TestEncodeBoard(t *testing.T) {
	cells := []CellState{
		{Coord: "a3", Kind: KindFighter, Token: "xyz"},
		{Coord: "b4", Kind: KindWeapon, Token: WeaponDagger},
		{Coord: "j10", Kind: KindTrap, Token: TrapSpikes},
	}
	want := "/a3~xyz/b4-dagger/j10-spikes"
	if got := EncodeBoard(cells); got != want {
		t.Errorf("EncodeBoard = %q, want %q", got, want)
	}

	if _, err := DecodeBoard("/a3xyz"); err == nil {
		t.Error("segment without separator should fail")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := newStartedMatch(t, 2)
	snap := m.Snapshot()
	if snap.Status != "active" || snap.Round != 1 || snap.Current == nil {
		t.Fatalf("unexpected snapshot header %+v", snap)
	}

	snap.Fighters[0].HP = 0
	snap.Current.ID = "changed"
	if m.Roster[0].HP != 12 || m.CurrentFighter().Player.ID == "changed" {
		t.Error("snapshot must not alias match state")
	}
}
