package game

// BoardSize is the width and height of the arena. Coordinates are 1-based.
const BoardSize = 10

// Status represents the current match phase.
type Status int

const (
	StatusForming   Status = iota // Accepting joins
	StatusActive                  // Turns in progress
	StatusConcluded               // One or zero fighters left, or ended by an admin
)

func (s Status) String() string {
	switch s {
	case StatusForming:
		return "forming"
	case StatusActive:
		return "active"
	case StatusConcluded:
		return "concluded"
	default:
		return "unknown"
	}
}

// Direction is one of the four cardinal directions used by directional actions.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "invalid"
	}
}

// Offset returns the unit step for the direction. Y grows downward.
func (d Direction) Offset() Position {
	switch d {
	case DirUp:
		return Position{X: 0, Y: -1}
	case DirDown:
		return Position{X: 0, Y: 1}
	case DirLeft:
		return Position{X: -1, Y: 0}
	case DirRight:
		return Position{X: 1, Y: 0}
	}
	return Position{}
}

// Config holds the rule numbers for a match.
type Config struct {
	MaxFighters    int `json:"max_fighters"`
	MinFighters    int `json:"min_fighters"`
	StartingHP     int `json:"starting_hp"`
	MovesPerTurn   int `json:"moves_per_turn"`
	ActionsPerTurn int `json:"actions_per_turn"`
	WeaponSpawns   int `json:"weapon_spawns"`
	TrapSpawns     int `json:"trap_spawns"`
	TrapDamage     int `json:"trap_damage"`
	ThrowRange     int `json:"throw_range"` // Manhattan distance
	PushDistance   int `json:"push_distance"`
	ShoveDamage    int `json:"shove_damage"`
}

// DefaultConfig returns the standard arena rules.
func DefaultConfig() Config {
	return Config{
		MaxFighters:    4,
		MinFighters:    2,
		StartingHP:     12,
		MovesPerTurn:   4,
		ActionsPerTurn: 2,
		WeaponSpawns:   4,
		TrapSpawns:     4,
		TrapDamage:     2,
		ThrowRange:     5,
		PushDistance:   2,
		ShoveDamage:    1,
	}
}
