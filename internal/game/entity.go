package game

// Player identifies the person behind a fighter. It is resolved by whatever
// dispatcher talks to the engine.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Mention   string `json:"mention"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Admin     bool   `json:"-"`
}

// Fighter is a combatant on the grid.
type Fighter struct {
	Player  Player   `json:"player"`
	Pos     Position `json:"pos"`
	HP      int      `json:"hp"`
	Moves   int      `json:"moves"`
	Actions int      `json:"actions"`
	Weapon  Weapon   `json:"weapon"`
	Token   string   `json:"token"` // avatar short code, fixed at creation
}

func newFighter(p Player, pos Position, token string, cfg Config) *Fighter {
	return &Fighter{
		Player:  p,
		Pos:     pos,
		HP:      cfg.StartingHP,
		Moves:   cfg.MovesPerTurn,
		Actions: cfg.ActionsPerTurn,
		Weapon:  Unarmed(),
		Token:   token,
	}
}

// Alive reports whether the fighter still has hit points.
func (f *Fighter) Alive() bool {
	return f.HP > 0
}

func (f *Fighter) resetBudgets(cfg Config) {
	f.Moves = cfg.MovesPerTurn
	f.Actions = cfg.ActionsPerTurn
}

// RenderToken is the avatar short code.
func (f *Fighter) RenderToken() string {
	return f.Token
}

// WeaponPickup is a catalog entry lying on the grid.
type WeaponPickup struct {
	Pos    Position `json:"pos"`
	Weapon Weapon   `json:"weapon"`
}

func (w *WeaponPickup) RenderToken() string {
	return w.Weapon.Name
}

// Trap damages whoever steps onto it. Traps are never consumed.
type Trap struct {
	Pos    Position `json:"pos"`
	Name   string   `json:"name"`
	Damage int      `json:"damage"`
}

func (t *Trap) RenderToken() string {
	return t.Name
}

// TrapSpikes is the only trap kind spawned.
const TrapSpikes = "spikes"
