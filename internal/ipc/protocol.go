package ipc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/1broseidon/swaygravity/internal/daemon"
	"github.com/1broseidon/swaygravity/internal/placement"
)

// CommandType represents the kinds of message a client can send.
type CommandType string

const (
	CommandUpdate   CommandType = "UPDATE"
	CommandShutdown CommandType = "SHUTDOWN"
)

// MaxMessageSize caps a single message.
const MaxMessageSize = 64 << 10

// ErrInvalidMessage is returned for messages that cannot be decoded.
var ErrInvalidMessage = errors.New("invalid message")

// Message is the single request a connection carries. There is no
// response: the connection is closed once the message is sent.
type Message struct {
	Command CommandType       `json:"command"`
	Update  *placement.Update `json:"update,omitempty"`
}

// UpdateMessage wraps u for delivery to the daemon.
func UpdateMessage(u placement.Update) Message {
	return Message{Command: CommandUpdate, Update: &u}
}

// ShutdownMessage asks the daemon to stop.
func ShutdownMessage() Message {
	return Message{Command: CommandShutdown}
}

// Validate checks that m is well formed.
func (m Message) Validate() error {
	switch m.Command {
	case CommandUpdate:
		if m.Update == nil {
			return nil
		}
		if err := m.Update.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		return nil
	case CommandShutdown:
		if m.Update != nil {
			return fmt.Errorf("%w: shutdown carries no update", ErrInvalidMessage)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", ErrInvalidMessage, m.Command)
	}
}

// Event converts m into the loop's vocabulary.
func (m Message) Event(source string) daemon.Event {
	if m.Command == CommandShutdown {
		return daemon.ShutdownEvent{Source: source, Reason: "shutdown requested"}
	}
	var u placement.Update
	if m.Update != nil {
		u = *m.Update
	}
	return daemon.UpdateEvent{Source: source, Update: u}
}

// Marshal converts a message to JSON bytes.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Decode reads one message from r until EOF.
func Decode(r io.Reader) (Message, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxMessageSize+1))
	if err != nil {
		return Message{}, fmt.Errorf("read message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return Message{}, fmt.Errorf("%w: larger than %d bytes", ErrInvalidMessage, MaxMessageSize)
	}
	return ParseMessage(data)
}

// ParseMessage parses and validates a message from JSON bytes.
func ParseMessage(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Message
	if err := dec.Decode(&m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if dec.More() {
		return Message{}, fmt.Errorf("%w: trailing data", ErrInvalidMessage)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
