package ui

import (
	"fmt"

	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/network"
	"github.com/amalg/gridarena/internal/session"
)

// DescribeError renders a rejected command for the player.
func DescribeError(e network.ErrorMsg) string {
	md := e.Metadata
	switch e.Code {
	case game.CodeNotAdministrator:
		return "only admins can end matches"
	case game.CodeMatchAlreadyExists:
		return "channel has a match going already"
	case game.CodeNoMatchInChannel:
		return "no match in this channel"
	case game.CodeMatchAlreadyStarted:
		return "match has already started, fight to the death!"
	case game.CodePlayerAlreadyInAnotherMatch:
		return "please finish your other match first"
	case game.CodeInsufficientFighters:
		return "need at least 1 more fighter to start"
	case game.CodeNotInitiator:
		return "only the first fighter can start the match"
	case game.CodeRosterFull:
		return "cannot join, match already full"
	case game.CodeNotInMatch:
		return "you are not part of this match"
	case game.CodeMatchNotStarted:
		return "match has not started in this channel"
	case game.CodeNotPlayerTurn:
		return "it's not your turn!"
	case game.CodeMoveBudgetExceeded:
		return fmt.Sprintf("you tried to move %s squares with %s left", md["requested"], md["remaining"])
	case game.CodeBlockedByFighter:
		return "you tried to move into another fighter"
	case game.CodeInvalidNumericArgument:
		return "the arguments must be proper numbers"
	case game.CodeInvalidDirection:
		return "please input a valid direction"
	case game.CodeMissingArgument:
		return "missing arguments for that command"
	case game.CodeUnknownCommand:
		return "unknown command"
	case game.CodeNoTargetInDirection:
		return "no target in that direction"
	case game.CodeWrongWeaponEquipped:
		return fmt.Sprintf("you must equip a %s to %s", md["required"], md["action"])
	case game.CodeTargetNotFound:
		return fmt.Sprintf("no target called %s found", md["target"])
	case game.CodeTargetOutOfRange:
		return fmt.Sprintf("target is out of range of %s squares", md["max"])
	case game.CodeBoardFull:
		return "no free cells left on the board"
	}
	return "unknown error occurred"
}

// DescribeReply summarises an accepted command.
func DescribeReply(r session.Reply) string {
	switch {
	case r.Move != nil:
		return describeMove(*r.Move)
	case r.Action != nil:
		return describeAction(*r.Action)
	}
	switch r.Command {
	case session.CmdChallenge:
		return "you challenged this channel"
	case session.CmdJoin:
		return "you joined the battle"
	case session.CmdRetire:
		return "you retired from the match"
	case session.CmdStart:
		return "battle has started!"
	case session.CmdEnd:
		return "match ended"
	}
	return ""
}

func describeMove(m game.MoveResult) string {
	var s string
	switch m.Outcome {
	case game.MoveSkipped:
		s = "you stayed put"
	case game.MoveToEmpty:
		s = fmt.Sprintf("you moved to %s", m.To)
	case game.MovePickedUpWeapon:
		s = fmt.Sprintf("you equipped a %s at %s", m.Weapon.Name, m.To)
	case game.MoveTriggeredTrap:
		s = fmt.Sprintf("you stepped on a %s trap at %s and took %d damage", m.Trap, m.To, m.Damage)
	}
	return s + describeSweep(m.Sweep)
}

func describeAction(a game.ActionResult) string {
	var s string
	target := ""
	if a.Target != nil {
		target = a.Target.Name
	}
	switch a.Kind {
	case game.ActionAttack:
		s = fmt.Sprintf("you hit %s with your %s for %d", target, a.Weapon.Name, a.Damage)
	case game.ActionThrow:
		s = fmt.Sprintf("you threw your dagger %d squares at %s for %d", a.Distance, target, a.Damage)
	case game.ActionShove:
		if a.PushedTo != nil {
			s = fmt.Sprintf("you shoved %s to %s", target, *a.PushedTo)
		} else {
			s = fmt.Sprintf("you shoved %s but they did not budge", target)
		}
	case game.ActionDisarm:
		s = fmt.Sprintf("you disarmed %s", target)
	case game.ActionPass:
		s = "you passed"
	}
	if a.TurnEnded {
		s += ", turn over"
	}
	return s + describeSweep(a.Sweep)
}

func describeSweep(sw game.Sweep) string {
	s := ""
	for _, p := range sw.Eliminated {
		s += fmt.Sprintf("; %s has fallen", p.Name)
	}
	if sw.Concluded {
		if sw.Victor != nil {
			s += fmt.Sprintf("; %s is the victor!", sw.Victor.Name)
		} else {
			s += "; nobody survived"
		}
	}
	return s
}
