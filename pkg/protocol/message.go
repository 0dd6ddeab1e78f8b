package protocol

import (
	"errors"
	"fmt"
)

// Op identifies a command sent to the tab.
type Op uint8

const (
	OpPush    Op = 0x01 // history.pushState
	OpReplace Op = 0x02 // history.replaceState
	OpGo      Op = 0x03 // history.go
	OpGuard   Op = 0x04 // arm or disarm the beforeunload guard
)

// String returns the string representation of the op.
func (op Op) String() string {
	switch op {
	case OpPush:
		return "Push"
	case OpReplace:
		return "Replace"
	case OpGo:
		return "Go"
	case OpGuard:
		return "Guard"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// EventKind identifies what changed in the tab.
type EventKind uint8

const (
	EventInit    EventKind = 0x00 // carried by the hello frame
	EventPop     EventKind = 0x01 // back/forward navigation
	EventPush    EventKind = 0x02 // pushState by a page script
	EventReplace EventKind = 0x03 // replaceState by a page script
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventInit:
		return "Init"
	case EventPop:
		return "Pop"
	case EventPush:
		return "Push"
	case EventReplace:
		return "Replace"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Message errors.
var (
	ErrUnknownOp        = errors.New("protocol: unknown command op")
	ErrUnknownEventKind = errors.New("protocol: unknown event kind")
	ErrUnexpectedFrame  = errors.New("protocol: unexpected frame type")
)

// Command is a history mutation the tab must perform.
type Command struct {
	Op      Op
	Href    string // Push, Replace
	Key     string // Push, Replace
	Value   []byte // Push, Replace: JSON state value, may be nil
	Delta   int    // Go
	Enabled bool   // Guard
}

// Encode encodes the command payload.
func (c *Command) Encode(e *Encoder) {
	e.WriteByte(byte(c.Op))
	switch c.Op {
	case OpPush, OpReplace:
		e.WriteString(c.Href)
		e.WriteString(c.Key)
		e.WriteLenBytes(c.Value)
	case OpGo:
		e.WriteSvarint(int64(c.Delta))
	case OpGuard:
		e.WriteBool(c.Enabled)
	}
}

// DecodeCommand decodes a command payload.
func DecodeCommand(payload []byte) (*Command, error) {
	d := NewDecoder(payload)
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	c := &Command{Op: Op(b)}
	switch c.Op {
	case OpPush, OpReplace:
		if c.Href, err = d.ReadString(); err != nil {
			return nil, err
		}
		if c.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		if c.Value, err = d.ReadLenBytes(); err != nil {
			return nil, err
		}
	case OpGo:
		delta, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		c.Delta = int(delta)
	case OpGuard:
		if c.Enabled, err = d.ReadBool(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownOp
	}
	return c, nil
}

// Event reports the tab's location after a change it observed.
type Event struct {
	Kind  EventKind
	Href  string
	Key   string
	Value []byte
}

// Encode encodes the event payload.
func (ev *Event) Encode(e *Encoder) {
	e.WriteByte(byte(ev.Kind))
	e.WriteString(ev.Href)
	e.WriteString(ev.Key)
	e.WriteLenBytes(ev.Value)
}

// DecodeEvent decodes an event payload.
func DecodeEvent(payload []byte) (*Event, error) {
	d := NewDecoder(payload)
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ev := &Event{Kind: EventKind(b)}
	if ev.Kind > EventReplace {
		return nil, ErrUnknownEventKind
	}
	if ev.Href, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Key, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Value, err = d.ReadLenBytes(); err != nil {
		return nil, err
	}
	return ev, nil
}

// ErrorMessage is the payload of an error frame.
type ErrorMessage struct {
	Code    string
	Message string
}

// Encode encodes the error payload.
func (m *ErrorMessage) Encode(e *Encoder) {
	e.WriteString(m.Code)
	e.WriteString(m.Message)
}

// DecodeErrorMessage decodes an error payload.
func DecodeErrorMessage(payload []byte) (*ErrorMessage, error) {
	d := NewDecoder(payload)
	code, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: code, Message: msg}, nil
}

// CommandFrame encodes c as a complete command frame. It returns
// ErrFrameTooLarge when the payload does not fit the length field.
func CommandFrame(c *Command) ([]byte, error) {
	e := NewEncoder()
	c.Encode(e)
	payload := e.Bytes()
	if len(payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	return NewFrame(FrameCommand, payload).Encode(), nil
}

// EventFrame encodes ev as a complete frame. Init events travel in a
// hello frame, everything else in an event frame.
func EventFrame(ev *Event) []byte {
	e := NewEncoder()
	ev.Encode(e)
	ft := FrameEvent
	if ev.Kind == EventInit {
		ft = FrameHello
	}
	return NewFrame(ft, e.Bytes()).Encode()
}

// ErrorFrame encodes m as a complete error frame.
func ErrorFrame(m *ErrorMessage) []byte {
	e := NewEncoder()
	m.Encode(e)
	return NewFrame(FrameError, e.Bytes()).Encode()
}
