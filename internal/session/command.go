package session

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/amalg/gridarena/internal/game"
)

// Command names accepted by Dispatch.
const (
	CmdChallenge = "challenge"
	CmdJoin      = "join"
	CmdRetire    = "retire"
	CmdStart     = "start"
	CmdEnd       = "end"
	CmdMove      = "move"
	CmdAttack    = "attack"
	CmdThrow     = "throw"
	CmdShove     = "shove"
	CmdDisarm    = "disarm"
	CmdPass      = "pass"
	CmdMap       = "map"
	CmdList      = "list"
)

// Command is one request from a dispatcher: who sent it, where, and the raw
// arguments as typed.
type Command struct {
	Name   string      `json:"name"`
	Key    Key         `json:"key"`
	Player game.Player `json:"player"`
	Args   []string    `json:"args,omitempty"`
}

// Reply is the structured result of a dispatched command. Which fields are
// set depends on the command.
type Reply struct {
	Command  string             `json:"command"`
	Snapshot *game.Snapshot     `json:"snapshot,omitempty"`
	Move     *game.MoveResult   `json:"move,omitempty"`
	Action   *game.ActionResult `json:"action,omitempty"`
	Matches  []Summary          `json:"matches,omitempty"`
}

// Dispatch validates the argument shape of cmd and routes it to the matching
// registry operation.
func (r *Registry) Dispatch(ctx context.Context, cmd Command) (Reply, error) {
	name := cases.Lower(language.Und).String(strings.TrimSpace(cmd.Name))
	reply := Reply{Command: name}

	var (
		snap game.Snapshot
		err  error
	)
	switch name {
	case CmdChallenge:
		snap, err = r.Challenge(ctx, cmd.Key, cmd.Player)
	case CmdJoin:
		snap, err = r.Join(ctx, cmd.Key, cmd.Player)
	case CmdRetire:
		snap, err = r.Retire(cmd.Key, cmd.Player)
	case CmdStart:
		snap, err = r.Start(cmd.Key, cmd.Player)
	case CmdEnd:
		snap, err = r.End(cmd.Key, cmd.Player)
	case CmdMap:
		snap, err = r.Snapshot(cmd.Key)
	case CmdList:
		reply.Matches = r.List()
		return reply, nil

	case CmdMove:
		if len(cmd.Args) < 2 {
			return Reply{}, game.NewError(game.CodeMissingArgument, "command", name, "need", "dx dy")
		}
		dx, err := parseDelta(cmd.Args[0])
		if err != nil {
			return Reply{}, err
		}
		dy, err := parseDelta(cmd.Args[1])
		if err != nil {
			return Reply{}, err
		}
		res, s, err := r.Move(cmd.Key, cmd.Player, dx, dy)
		if err != nil {
			return Reply{}, err
		}
		reply.Move = &res
		reply.Snapshot = &s
		return reply, nil

	case CmdAttack, CmdShove, CmdDisarm:
		if len(cmd.Args) < 1 {
			return Reply{}, game.NewError(game.CodeMissingArgument, "command", name, "need", "direction")
		}
		dir, err := game.ParseDirection(cmd.Args[0])
		if err != nil {
			return Reply{}, err
		}
		var res game.ActionResult
		var s game.Snapshot
		switch name {
		case CmdAttack:
			res, s, err = r.Attack(cmd.Key, cmd.Player, dir)
		case CmdShove:
			res, s, err = r.Shove(cmd.Key, cmd.Player, dir)
		default:
			res, s, err = r.Disarm(cmd.Key, cmd.Player, dir)
		}
		if err != nil {
			return Reply{}, err
		}
		reply.Action = &res
		reply.Snapshot = &s
		return reply, nil

	case CmdThrow:
		if len(cmd.Args) < 1 {
			return Reply{}, game.NewError(game.CodeMissingArgument, "command", name, "need", "target")
		}
		res, s, err := r.Throw(cmd.Key, cmd.Player, NormalizeMention(cmd.Args[0]))
		if err != nil {
			return Reply{}, err
		}
		reply.Action = &res
		reply.Snapshot = &s
		return reply, nil

	case CmdPass:
		res, s, err := r.Pass(cmd.Key, cmd.Player)
		if err != nil {
			return Reply{}, err
		}
		reply.Action = &res
		reply.Snapshot = &s
		return reply, nil

	default:
		return Reply{}, game.NewError(game.CodeUnknownCommand, "command", cmd.Name)
	}

	if err != nil {
		return Reply{}, err
	}
	reply.Snapshot = &snap
	return reply, nil
}

func parseDelta(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, game.NewError(game.CodeInvalidNumericArgument, "value", s)
	}
	return v, nil
}

// NormalizeMention strips the nickname marker so "<@!42>" and "<@42>" name
// the same player.
func NormalizeMention(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<@!") {
		return "<@" + s[3:]
	}
	return s
}
