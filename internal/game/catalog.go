package game

// Weapon is an immutable catalog entry. Range is counted in cells along one
// cardinal direction; melee weapons have range 1.
type Weapon struct {
	Name   string `json:"name"`
	Damage int    `json:"damage"`
	Range  int    `json:"range"`
}

// Weapon names with special abilities.
const (
	WeaponUnarmed = "unarmed"
	WeaponDagger  = "dagger" // throw
	WeaponRapier  = "rapier" // disarm
	WeaponAxe     = "axe"    // shove
	WeaponSpear   = "spear"
)

// Catalog lists every weapon archetype. Index 0 is the unarmed entry every
// fighter starts with; the rest can spawn as pickups.
var Catalog = []Weapon{
	{Name: WeaponUnarmed, Damage: 1, Range: 1},
	{Name: WeaponDagger, Damage: 2, Range: 1},
	{Name: WeaponRapier, Damage: 3, Range: 1},
	{Name: WeaponAxe, Damage: 3, Range: 1},
	{Name: WeaponSpear, Damage: 2, Range: 2},
}

// Unarmed returns the starting catalog entry.
func Unarmed() Weapon {
	return Catalog[0]
}

// LookupWeapon finds a catalog entry by name.
func LookupWeapon(name string) (Weapon, bool) {
	for _, w := range Catalog {
		if w.Name == name {
			return w, true
		}
	}
	return Weapon{}, false
}

// spawnable returns the entries that may appear as pickups.
func spawnable() []Weapon {
	return Catalog[1:]
}
