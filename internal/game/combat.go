package game

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseDirection maps a direction token (any case) to a Direction.
func ParseDirection(token string) (Direction, error) {
	// A Caser keeps state, so each call gets its own.
	switch cases.Lower(language.Und).String(strings.TrimSpace(token)) {
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	case "left":
		return DirLeft, nil
	case "right":
		return DirRight, nil
	}
	return 0, NewError(CodeInvalidDirection, "direction", token)
}

// ActionKind names a turn action.
type ActionKind string

const (
	ActionAttack ActionKind = "attack"
	ActionThrow  ActionKind = "throw"
	ActionShove  ActionKind = "shove"
	ActionDisarm ActionKind = "disarm"
	ActionPass   ActionKind = "pass"
)

// ActionResult is the structured outcome of a resolved action.
type ActionResult struct {
	Kind      ActionKind `json:"kind"`
	Attacker  Player     `json:"attacker"`
	Target    *Player    `json:"target,omitempty"`
	Weapon    Weapon     `json:"weapon"`
	Damage    int        `json:"damage,omitempty"`
	Distance  int        `json:"distance,omitempty"`
	PushedTo  *Position  `json:"pushed_to,omitempty"`
	TurnEnded bool       `json:"turn_ended"`
	Sweep     Sweep      `json:"sweep"`
}

// FindTargetAlongDirection scans origin+offset, origin+2*offset, ... for up to
// maxRange steps and returns the first living fighter found. Every step is
// clamped to the board, so a scan that runs into a wall keeps probing the
// same edge cell for the remaining steps. A scan from an edge cell toward
// its wall clamps onto the origin, so the fighter standing there is found.
func FindTargetAlongDirection(g *Grid, origin, offset Position, maxRange int) *Fighter {
	for i := 1; i <= maxRange; i++ {
		p := origin.Add(offset.X*i, offset.Y*i).Clamped()
		c := g.At(p)
		if c.Kind == KindFighter && c.Fighter.Alive() {
			return c.Fighter
		}
	}
	return nil
}

// RangedDistance is the Manhattan distance used by throws.
func RangedDistance(origin, target Position) int {
	return Manhattan(origin, target)
}

// applyDamage subtracts hit points without flooring; the death sweep handles
// anything at or below zero.
func applyDamage(target *Fighter, amount int) {
	target.HP -= amount
}

// Attack hits the first fighter in the direction within the equipped
// weapon's range for the weapon's damage.
func (m *Match) Attack(attacker *Fighter, dir Direction) (ActionResult, error) {
	target := FindTargetAlongDirection(&m.Grid, attacker.Pos, dir.Offset(), attacker.Weapon.Range)
	if target == nil {
		return ActionResult{}, NewError(CodeNoTargetInDirection, "direction", dir.String())
	}

	res := m.newResult(ActionAttack, attacker, target)
	res.Damage = attacker.Weapon.Damage
	applyDamage(target, res.Damage)
	m.finish(&res)
	return res, nil
}

// Throw hurls a dagger at any fighter within the throw range, no line needed.
func (m *Match) Throw(attacker *Fighter, targetMention string) (ActionResult, error) {
	if err := requireWeapon(attacker, WeaponDagger, ActionThrow); err != nil {
		return ActionResult{}, err
	}
	target := m.FindByMention(targetMention)
	if target == nil || target == attacker || !target.Alive() {
		return ActionResult{}, NewError(CodeTargetNotFound, "target", targetMention)
	}
	dist := RangedDistance(attacker.Pos, target.Pos)
	if dist > m.Config.ThrowRange {
		return ActionResult{}, NewError(CodeTargetOutOfRange,
			"distance", strconv.Itoa(dist),
			"max", strconv.Itoa(m.Config.ThrowRange))
	}

	res := m.newResult(ActionThrow, attacker, target)
	res.Distance = dist
	res.Damage = attacker.Weapon.Damage
	applyDamage(target, res.Damage)
	m.finish(&res)
	return res, nil
}

// Shove pushes the target in the direction and deals fixed damage.
func (m *Match) Shove(attacker *Fighter, dir Direction) (ActionResult, error) {
	if err := requireWeapon(attacker, WeaponAxe, ActionShove); err != nil {
		return ActionResult{}, err
	}
	target := FindTargetAlongDirection(&m.Grid, attacker.Pos, dir.Offset(), attacker.Weapon.Range)
	if target == nil {
		return ActionResult{}, NewError(CodeNoTargetInDirection, "direction", dir.String())
	}

	res := m.newResult(ActionShove, attacker, target)
	if m.push(target, dir.Offset()) {
		to := target.Pos
		res.PushedTo = &to
	}
	res.Damage = m.Config.ShoveDamage
	applyDamage(target, res.Damage)
	m.finish(&res)
	return res, nil
}

// Disarm resets the target's weapon to unarmed. It deals no damage.
func (m *Match) Disarm(attacker *Fighter, dir Direction) (ActionResult, error) {
	if err := requireWeapon(attacker, WeaponRapier, ActionDisarm); err != nil {
		return ActionResult{}, err
	}
	target := FindTargetAlongDirection(&m.Grid, attacker.Pos, dir.Offset(), attacker.Weapon.Range)
	if target == nil {
		return ActionResult{}, NewError(CodeNoTargetInDirection, "direction", dir.String())
	}

	res := m.newResult(ActionDisarm, attacker, target)
	target.Weapon = Unarmed()
	m.finish(&res)
	return res, nil
}

// Pass spends an action without doing anything.
func (m *Match) Pass(f *Fighter) ActionResult {
	res := m.newResult(ActionPass, f, nil)
	m.finish(&res)
	return res
}

// push relocates target by PushDistance cells along offset, clamped to the
// board. It is a raw relocation: no pickups or traps fire, and a destination
// that is not empty leaves the target where it is.
func (m *Match) push(target *Fighter, offset Position) bool {
	d := m.Config.PushDistance
	dest := target.Pos.Add(offset.X*d, offset.Y*d).Clamped()
	if dest == target.Pos || !m.Grid.IsEmpty(dest) {
		return false
	}
	m.relocate(target, dest)
	return true
}

func requireWeapon(f *Fighter, name string, action ActionKind) error {
	if f.Weapon.Name != name {
		return NewError(CodeWrongWeaponEquipped,
			"required", name,
			"equipped", f.Weapon.Name,
			"action", string(action))
	}
	return nil
}

func (m *Match) newResult(kind ActionKind, attacker, target *Fighter) ActionResult {
	res := ActionResult{Kind: kind, Attacker: attacker.Player, Weapon: attacker.Weapon}
	if target != nil {
		p := target.Player
		res.Target = &p
	}
	return res
}

// finish spends the action and then sweeps the dead, in that order.
func (m *Match) finish(res *ActionResult) {
	res.TurnEnded = m.ConsumeAction()
	res.Sweep = m.SweepDead()
}
