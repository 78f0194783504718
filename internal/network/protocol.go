package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/session"
)

// MsgType identifies the type of network message.
type MsgType string

const (
	MsgHello     MsgType = "hello"
	MsgWelcome   MsgType = "welcome"
	MsgSubscribe MsgType = "subscribe"
	MsgCommand   MsgType = "command"
	MsgResult    MsgType = "result"
	MsgState     MsgType = "state"
	MsgError     MsgType = "error"
)

// maxMessageSize bounds a single frame.
const maxMessageSize = 1 << 20

// Envelope wraps all messages with a type discriminator for deserialization.
type Envelope struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- Client → Server Messages ---

// HelloMsg identifies the player and the channel they are looking at.
type HelloMsg struct {
	Player game.Player `json:"player"`
	Key    session.Key `json:"key"`
}

// SubscribeMsg switches the channel a connection plays in and watches.
type SubscribeMsg struct {
	Key session.Key `json:"key"`
}

// CommandMsg is one game command with its raw arguments.
type CommandMsg struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// --- Server → Client Messages ---

// WelcomeMsg is sent to a client after hello.
type WelcomeMsg struct {
	Server string      `json:"server"`
	Player game.Player `json:"player"`
	Key    session.Key `json:"key"`
	Config game.Config `json:"config"`
}

// ResultMsg answers an accepted command.
type ResultMsg struct {
	Reply session.Reply `json:"reply"`
}

// StateMsg is pushed to every subscriber of a channel after its match changes.
type StateMsg struct {
	Key      session.Key   `json:"key"`
	Snapshot game.Snapshot `json:"snapshot"`
	MapURL   string        `json:"map_url,omitempty"`
}

// ErrorMsg reports a rejected command by kind. Text is the client's business.
type ErrorMsg struct {
	Command  string            `json:"command,omitempty"`
	Code     game.Code         `json:"code"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewErrorMsg converts any error into its wire form.
func NewErrorMsg(command string, err error) ErrorMsg {
	return ErrorMsg{
		Command:  command,
		Code:     game.GetCode(err),
		Metadata: game.GetMetadata(err),
	}
}

// Err turns the message back into a domain error.
func (m ErrorMsg) Err() error {
	return &game.Error{Code: m.Code, Metadata: m.Metadata}
}

// Encode serializes a message and writes it to the writer.
// Format: [4-byte big-endian length][JSON body]
func Encode(w io.Writer, msgType MsgType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := Envelope{
		Type:    msgType,
		Payload: json.RawMessage(payloadBytes),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// Header and body go out in one write so frames never interleave.
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Decode reads a length-prefixed JSON message from the reader.
func Decode(r io.Reader) (*Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	if length > maxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// DecodePayload unmarshals the payload from an envelope into the target struct.
func DecodePayload(env *Envelope, target interface{}) error {
	return json.Unmarshal(env.Payload, target)
}
