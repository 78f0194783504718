package ui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/network"
	"github.com/amalg/gridarena/internal/session"
)

const maxLogLines = 6

// Conn is the part of the network client the model drives.
type Conn interface {
	Send(name string, args ...string) error
	Events() <-chan network.Event
}

// eventMsg carries one server message into the update loop.
type eventMsg network.Event

// errMsg carries an error.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// pending is a directional or targeted action waiting for its second key.
type pending string

// Model is the Bubbletea model for the arena client.
type Model struct {
	conn     Conn
	me       game.Player
	key      session.Key
	snap     *game.Snapshot
	mapURL   string
	log      []string
	pending  pending
	err      error
	quitting bool
}

// NewModel creates a TUI model on top of a connected client.
func NewModel(conn Conn, me game.Player, key session.Key) Model {
	return Model{conn: conn, me: me, key: key}
}

// Init starts listening for server events.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.conn)
}

// Update handles key presses and server events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.apply(network.Event(msg))
		return m, waitForEvent(m.conn)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(ev network.Event) {
	switch {
	case ev.State != nil:
		if ev.State.Key != m.key {
			return
		}
		snap := ev.State.Snapshot
		m.snap = &snap
		m.mapURL = ev.State.MapURL
	case ev.Result != nil:
		if text := DescribeReply(ev.Result.Reply); text != "" {
			m.addLog(text)
		}
		if ev.Result.Reply.Command == session.CmdEnd {
			m.snap = nil
			m.mapURL = ""
		}
	case ev.Error != nil:
		m.addLog(errorStyle.Render(DescribeError(*ev.Error)))
		if ev.Error.Code == game.CodeNoMatchInChannel {
			m.snap = nil
			m.mapURL = ""
		}
	}
}

func (m *Model) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

// View renders the board and HUD.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	board := RenderBoard(m.snap, m.me.ID)
	hud := RenderHUD(m.snap, m.me.ID, m.key)

	// Layout: board on the left, HUD on the right
	screen := lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", hud)

	var footer string
	if m.pending != "" {
		footer = lobbyStyle.Render(promptFor(m.pending)) + "\n"
	}
	for _, line := range m.log {
		footer += line + "\n"
	}
	if m.mapURL != "" {
		footer += dimStyle.Render(m.mapURL) + "\n"
	}
	return screen + "\n" + footer
}

func promptFor(p pending) string {
	if p == session.CmdThrow {
		return "throw at which fighter? [1-4]"
	}
	return fmt.Sprintf("%s which way? [wasd/arrows]", p)
}

var directionKeys = map[string]game.Direction{
	"up": game.DirUp, "w": game.DirUp,
	"down": game.DirDown, "s": game.DirDown,
	"left": game.DirLeft, "a": game.DirLeft,
	"right": game.DirRight, "d": game.DirRight,
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch k {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.pending = ""
		return m, nil
	}

	if m.pending != "" {
		return m.completePending(k)
	}

	if dir, ok := directionKeys[k]; ok {
		off := dir.Offset()
		m.send(session.CmdMove, strconv.Itoa(off.X), strconv.Itoa(off.Y))
		return m, nil
	}

	switch k {
	case "f":
		m.pending = session.CmdAttack
	case "g":
		m.pending = session.CmdShove
	case "x":
		m.pending = session.CmdDisarm
	case "t":
		m.pending = session.CmdThrow
	case "p":
		m.send(session.CmdPass)
	case "c":
		m.send(session.CmdChallenge)
	case "j":
		m.send(session.CmdJoin)
	case "r":
		m.send(session.CmdRetire)
	case "enter":
		m.send(session.CmdStart)
	case "e":
		m.send(session.CmdEnd)
	case "m":
		m.send(session.CmdMap)
	}

	return m, nil
}

func (m Model) completePending(k string) (tea.Model, tea.Cmd) {
	action := m.pending
	m.pending = ""

	if action == session.CmdThrow {
		n, err := strconv.Atoi(k)
		if err != nil || m.snap == nil || n < 1 || n > len(m.snap.Fighters) {
			m.addLog(errorStyle.Render("no fighter with that number"))
			return m, nil
		}
		m.send(session.CmdThrow, m.snap.Fighters[n-1].Player.Mention)
		return m, nil
	}

	dir, ok := directionKeys[k]
	if !ok {
		m.addLog(errorStyle.Render("please input a valid direction"))
		return m, nil
	}
	m.send(string(action), dir.String())
	return m, nil
}

func (m *Model) send(name string, args ...string) {
	if err := m.conn.Send(name, args...); err != nil {
		m.addLog(errorStyle.Render("send failed: " + err.Error()))
	}
}

// waitForEvent returns a Cmd that waits for the next message from the server.
func waitForEvent(conn Conn) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		if !ok {
			return errMsg{err: fmt.Errorf("server connection closed")}
		}
		return eventMsg(ev)
	}
}
