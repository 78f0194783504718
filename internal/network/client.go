package network

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/session"
)

// Event is one server message delivered to the client. Exactly one field is
// set.
type Event struct {
	State  *StateMsg
	Result *ResultMsg
	Error  *ErrorMsg
}

// Client connects to an arena server, sends commands and receives results
// and state pushes.
type Client struct {
	conn    net.Conn
	welcome WelcomeMsg
	events  chan Event
	done    chan struct{}
	mu      sync.Mutex
}

// NewClient connects to the server and introduces the player.
func NewClient(addr string, player game.Player, key session.Key) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c, err := newClient(conn, player, key)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(conn net.Conn, player game.Player, key session.Key) (*Client, error) {
	c := &Client{
		conn:   conn,
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}

	if err := Encode(conn, MsgHello, HelloMsg{Player: player, Key: key}); err != nil {
		return nil, fmt.Errorf("send hello: %w", err)
	}

	env, err := Decode(conn)
	if err != nil {
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	if env.Type == MsgError {
		var errMsg ErrorMsg
		DecodePayload(env, &errMsg)
		return nil, fmt.Errorf("server rejected hello: %w", errMsg.Err())
	}

	if env.Type != MsgWelcome {
		return nil, fmt.Errorf("expected welcome, got %s", env.Type)
	}

	if err := DecodePayload(env, &c.welcome); err != nil {
		return nil, fmt.Errorf("decode welcome: %w", err)
	}

	go c.receiveLoop()

	return c, nil
}

// Welcome returns what the server said on connect.
func (c *Client) Welcome() WelcomeMsg {
	return c.welcome
}

// Events yields server messages until the connection closes.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Send issues a game command.
func (c *Client) Send(name string, args ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Encode(c.conn, MsgCommand, CommandMsg{Name: name, Args: args})
}

// Subscribe switches to another channel.
func (c *Client) Subscribe(key session.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Encode(c.conn, MsgSubscribe, SubscribeMsg{Key: key})
}

// Close disconnects from the server.
func (c *Client) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.conn.Close()
}

func (c *Client) receiveLoop() {
	defer close(c.events)

	for {
		env, err := Decode(c.conn)
		if err != nil {
			return
		}

		var ev Event
		switch env.Type {
		case MsgState:
			var msg StateMsg
			if err := DecodePayload(env, &msg); err != nil {
				continue
			}
			ev.State = &msg
		case MsgResult:
			var msg ResultMsg
			if err := DecodePayload(env, &msg); err != nil {
				continue
			}
			ev.Result = &msg
		case MsgError:
			var msg ErrorMsg
			if err := DecodePayload(env, &msg); err != nil {
				continue
			}
			ev.Error = &msg
		default:
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}
