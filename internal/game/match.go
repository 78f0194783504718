package game

import (
	"fmt"
	"math/rand"
	"strconv"
)

// maxPlacementDraws bounds rejection sampling before falling back to a
// shuffled list of the remaining empty cells.
const maxPlacementDraws = 1000

// Match is the authoritative state of one arena.
// Concurrency protection is the caller's job; a Match is not safe for
// concurrent use.
type Match struct {
	ID        string
	Guild     string
	Channel   string
	Initiator Player
	Status    Status
	Config    Config

	// Roster order is fixed by the shuffle in Start and defines turn order.
	Roster  []*Fighter
	Weapons []*WeaponPickup
	Traps   []*Trap
	Turn    int // index into Roster
	Round   int
	Victor  *Player

	Grid Grid
	rng  *rand.Rand
}

// NewMatch creates a forming match with the initiator as its first fighter.
// A nil rng gets a non-deterministic one.
func NewMatch(id, guild, channel string, initiator Player, token string, cfg Config, rng *rand.Rand) (*Match, error) {
	if rng == nil {
		rng = NewRand()
	}
	m := &Match{
		ID:        id,
		Guild:     guild,
		Channel:   channel,
		Initiator: initiator,
		Status:    StatusForming,
		Config:    cfg,
		Roster:    make([]*Fighter, 0, cfg.MaxFighters),
		rng:       rng,
	}
	if _, err := m.AddFighter(initiator, token); err != nil {
		return nil, err
	}
	return m, nil
}

// HasPlayer reports whether the player has a fighter in this match.
func (m *Match) HasPlayer(playerID string) bool {
	_, idx := m.FindFighter(playerID)
	return idx >= 0
}

// FindFighter returns the fighter and roster index for a player, or (nil, -1).
func (m *Match) FindFighter(playerID string) (*Fighter, int) {
	for i, f := range m.Roster {
		if f.Player.ID == playerID {
			return f, i
		}
	}
	return nil, -1
}

// FindByMention returns the fighter whose player has the given mention.
func (m *Match) FindByMention(mention string) *Fighter {
	for _, f := range m.Roster {
		if f.Player.Mention == mention {
			return f
		}
	}
	return nil
}

// AddFighter places a new fighter for the player on a random empty cell.
// The render token must already be resolved; nothing is mutated on error.
func (m *Match) AddFighter(p Player, token string) (*Fighter, error) {
	if m.Status != StatusForming {
		return nil, NewError(CodeMatchAlreadyStarted)
	}
	if m.HasPlayer(p.ID) {
		return nil, NewError(CodePlayerAlreadyInAnotherMatch, "player", p.ID)
	}
	if len(m.Roster) >= m.Config.MaxFighters {
		return nil, NewError(CodeRosterFull, "max", strconv.Itoa(m.Config.MaxFighters))
	}

	pos, err := m.randomEmptyCell()
	if err != nil {
		return nil, err
	}
	f := newFighter(p, pos, token, m.Config)
	m.Grid.Place(fighterCell(f), pos)
	m.Roster = append(m.Roster, f)
	return f, nil
}

// RemoveFighter withdraws a player before the match starts. The initiator
// role passes to the new roster leader; an emptied roster concludes the match.
func (m *Match) RemoveFighter(playerID string) error {
	if m.Status != StatusForming {
		return NewError(CodeMatchAlreadyStarted)
	}
	f, idx := m.FindFighter(playerID)
	if idx < 0 {
		return NewError(CodeNotInMatch, "player", playerID)
	}

	m.vacate(f.Pos)
	m.Roster = append(m.Roster[:idx], m.Roster[idx+1:]...)

	if len(m.Roster) == 0 {
		m.Status = StatusConcluded
		return nil
	}
	m.Initiator = m.Roster[0].Player
	return nil
}

// Start shuffles the roster once, spawns pickups and traps, and begins round 1.
func (m *Match) Start(by Player) error {
	if m.Status != StatusForming {
		return NewError(CodeMatchAlreadyStarted)
	}
	if len(m.Roster) < m.Config.MinFighters {
		return NewError(CodeInsufficientFighters,
			"have", strconv.Itoa(len(m.Roster)),
			"need", strconv.Itoa(m.Config.MinFighters))
	}
	if by.ID != m.Initiator.ID {
		return NewError(CodeNotInitiator, "initiator", m.Initiator.Mention)
	}

	if m.spawnCapacity() < m.Config.WeaponSpawns+m.Config.TrapSpawns {
		return NewError(CodeBoardFull)
	}

	m.rng.Shuffle(len(m.Roster), func(i, j int) {
		m.Roster[i], m.Roster[j] = m.Roster[j], m.Roster[i]
	})

	if err := m.spawnWeapons(); err != nil {
		return err
	}
	if err := m.spawnTraps(); err != nil {
		return err
	}

	m.Turn = 0
	m.Round = 1
	m.Status = StatusActive
	return nil
}

// End concludes the match administratively from any state.
func (m *Match) End() {
	m.Status = StatusConcluded
}

// Active reports whether turns are being played.
func (m *Match) Active() bool {
	return m.Status == StatusActive
}

// CurrentFighter returns the fighter whose turn it is. It is re-derived from
// the index on every call because deaths shift the roster.
func (m *Match) CurrentFighter() *Fighter {
	if m.Status != StatusActive || m.Turn < 0 || m.Turn >= len(m.Roster) {
		return nil
	}
	return m.Roster[m.Turn]
}

// EndTurn advances to the next fighter. Wrapping past the last fighter starts
// a new round and resets every survivor's budgets.
func (m *Match) EndTurn() {
	if m.Turn+1 >= len(m.Roster) {
		m.newRound()
		return
	}
	m.Turn++
}

func (m *Match) newRound() {
	m.Turn = 0
	m.Round++
	for _, f := range m.Roster {
		f.resetBudgets(m.Config)
	}
}

// ConsumeAction spends one action point of the current fighter. The last
// point ends the turn; it reports whether that happened.
func (m *Match) ConsumeAction() bool {
	f := m.CurrentFighter()
	if f == nil {
		return false
	}
	if f.Actions > 1 {
		f.Actions--
		return false
	}
	f.Actions = 0
	m.EndTurn()
	return true
}

// Sweep is the outcome of removing dead fighters.
type Sweep struct {
	Eliminated []Player `json:"eliminated,omitempty"`
	Concluded  bool     `json:"concluded"`
	Victor     *Player  `json:"victor,omitempty"`
}

// SweepDead removes every fighter at or below zero hit points from the roster
// and grid, keeping the turn index on the same living fighter. If the current
// fighter died the turn passes to the next survivor. One survivor concludes
// the match with a victor; none concludes it without one.
func (m *Match) SweepDead() Sweep {
	var sweep Sweep
	if m.Status == StatusConcluded {
		return sweep
	}

	survivors := make([]*Fighter, 0, len(m.Roster))
	removedBefore := 0
	for i, f := range m.Roster {
		if f.Alive() {
			survivors = append(survivors, f)
			continue
		}
		if i < m.Turn {
			removedBefore++
		}
		if c := m.Grid.At(f.Pos); c.Kind == KindFighter && c.Fighter == f {
			m.vacate(f.Pos)
		}
		sweep.Eliminated = append(sweep.Eliminated, f.Player)
	}
	if len(sweep.Eliminated) == 0 {
		return sweep
	}

	m.Roster = survivors
	m.Turn -= removedBefore

	switch {
	case len(survivors) == 0:
		m.Status = StatusConcluded
		m.Turn = 0
		sweep.Concluded = true
	case len(survivors) == 1 && m.Status == StatusActive:
		m.Status = StatusConcluded
		m.Turn = 0
		victor := survivors[0].Player
		m.Victor = &victor
		sweep.Concluded = true
		sweep.Victor = &victor
	case m.Turn >= len(survivors):
		m.newRound()
	}
	return sweep
}

func (m *Match) spawnWeapons() error {
	choices := spawnable()
	for i := 0; i < m.Config.WeaponSpawns; i++ {
		pos, err := m.randomEmptyCell()
		if err != nil {
			return err
		}
		w := &WeaponPickup{Pos: pos, Weapon: choices[m.rng.Intn(len(choices))]}
		m.Grid.Place(weaponCell(w), pos)
		m.Weapons = append(m.Weapons, w)
	}
	return nil
}

func (m *Match) spawnTraps() error {
	for i := 0; i < m.Config.TrapSpawns; i++ {
		pos, err := m.randomEmptyCell()
		if err != nil {
			return err
		}
		t := &Trap{Pos: pos, Name: TrapSpikes, Damage: m.Config.TrapDamage}
		m.Grid.Place(trapCell(t), pos)
		m.Traps = append(m.Traps, t)
	}
	return nil
}

func (m *Match) spawnCapacity() int {
	return BoardSize*BoardSize - len(m.Roster) - len(m.Weapons) - len(m.Traps)
}

// randomEmptyCell draws uniform cells until an empty one turns up. The board
// is sparse so this almost always succeeds quickly; past the draw cap it picks
// from the shuffled list of empty cells instead.
func (m *Match) randomEmptyCell() (Position, error) {
	for i := 0; i < maxPlacementDraws; i++ {
		p := Position{X: m.rng.Intn(BoardSize) + 1, Y: m.rng.Intn(BoardSize) + 1}
		if m.Grid.IsEmpty(p) {
			return p, nil
		}
	}
	empty := m.Grid.emptyCells()
	if len(empty) == 0 {
		return Position{}, NewError(CodeBoardFull)
	}
	m.rng.Shuffle(len(empty), func(i, j int) { empty[i], empty[j] = empty[j], empty[i] })
	return empty[0], nil
}

// vacate empties a cell a fighter is leaving. A trap the fighter was standing
// on is uncovered again.
func (m *Match) vacate(p Position) {
	for _, t := range m.Traps {
		if t.Pos == p {
			m.Grid.Place(trapCell(t), p)
			return
		}
	}
	m.Grid.Clear(p)
}

// removeWeapon drops a consumed pickup from the active set.
func (m *Match) removeWeapon(w *WeaponPickup) {
	for i, cur := range m.Weapons {
		if cur == w {
			m.Weapons = append(m.Weapons[:i], m.Weapons[i+1:]...)
			return
		}
	}
}

func (m *Match) String() string {
	return fmt.Sprintf("match %s (%s/%s, %s, round %d)", m.ID, m.Guild, m.Channel, m.Status, m.Round)
}
