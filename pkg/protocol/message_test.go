package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"push", Command{Op: OpPush, Href: "/a?x=1#h", Key: "k1", Value: []byte(`{"n":1}`)}},
		{"push_no_value", Command{Op: OpPush, Href: "/b", Key: "k2"}},
		{"replace", Command{Op: OpReplace, Href: "#/c", Key: "k3"}},
		{"go_back", Command{Op: OpGo, Delta: -2}},
		{"go_forward", Command{Op: OpGo, Delta: 300}},
		{"guard_on", Command{Op: OpGuard, Enabled: true}},
		{"guard_off", Command{Op: OpGuard}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := CommandFrame(&tc.cmd)
			if err != nil {
				t.Fatalf("CommandFrame() error = %v", err)
			}
			frame, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if frame.Type != FrameCommand {
				t.Fatalf("frame type = %v, want Command", frame.Type)
			}
			got, err := DecodeCommand(frame.Payload)
			if err != nil {
				t.Fatalf("DecodeCommand() error = %v", err)
			}
			if got.Op != tc.cmd.Op || got.Href != tc.cmd.Href || got.Key != tc.cmd.Key ||
				got.Delta != tc.cmd.Delta || got.Enabled != tc.cmd.Enabled ||
				!bytes.Equal(got.Value, tc.cmd.Value) {
				t.Errorf("DecodeCommand() = %+v, want %+v", got, tc.cmd)
			}
		})
	}
}

func TestCommandFrameTooLarge(t *testing.T) {
	big := Command{Op: OpPush, Href: "/a", Key: "k", Value: bytes.Repeat([]byte("x"), MaxPayloadSize)}
	if _, err := CommandFrame(&big); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("CommandFrame() error = %v, want ErrFrameTooLarge", err)
	}

	fits := Command{Op: OpPush, Href: "/a", Key: "k", Value: bytes.Repeat([]byte("x"), MaxPayloadSize-100)}
	data, err := CommandFrame(&fits)
	if err != nil {
		t.Fatalf("CommandFrame() error = %v", err)
	}
	if len(data) > FrameHeaderSize+MaxPayloadSize {
		t.Errorf("frame is %d bytes", len(data))
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	if _, err := DecodeCommand([]byte{0x7f}); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("unknown op error = %v, want ErrUnknownOp", err)
	}
	if _, err := DecodeCommand(nil); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("empty payload error = %v, want ErrUnexpectedEOF", err)
	}
	if _, err := DecodeCommand([]byte{byte(OpGuard), 0x02}); !errors.Is(err, ErrInvalidBool) {
		t.Errorf("bad bool error = %v, want ErrInvalidBool", err)
	}
	// Push with an href length that overruns the payload.
	if _, err := DecodeCommand([]byte{byte(OpPush), 0x10, 'a'}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated href error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestEventFrame(t *testing.T) {
	t.Run("init_uses_hello", func(t *testing.T) {
		frame, err := DecodeFrame(EventFrame(&Event{Kind: EventInit, Href: "/start"}))
		if err != nil {
			t.Fatal(err)
		}
		if frame.Type != FrameHello {
			t.Errorf("frame type = %v, want Hello", frame.Type)
		}
	})

	t.Run("pop_round_trip", func(t *testing.T) {
		want := Event{Kind: EventPop, Href: "/x#y", Key: "abc", Value: []byte("1")}
		frame, err := DecodeFrame(EventFrame(&want))
		if err != nil {
			t.Fatal(err)
		}
		if frame.Type != FrameEvent {
			t.Errorf("frame type = %v, want Event", frame.Type)
		}
		got, err := DecodeEvent(frame.Payload)
		if err != nil {
			t.Fatal(err)
		}
		if got.Kind != want.Kind || got.Href != want.Href || got.Key != want.Key || !bytes.Equal(got.Value, want.Value) {
			t.Errorf("DecodeEvent() = %+v, want %+v", got, want)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		if _, err := DecodeEvent([]byte{0x09, 0x00, 0x00, 0x00}); !errors.Is(err, ErrUnknownEventKind) {
			t.Errorf("error = %v, want ErrUnknownEventKind", err)
		}
	})
}

func TestErrorMessageRoundTrip(t *testing.T) {
	frame, err := DecodeFrame(ErrorFrame(&ErrorMessage{Code: "E999", Message: "boom"}))
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeErrorMessage(frame.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if m.Code != "E999" || m.Message != "boom" {
		t.Errorf("DecodeErrorMessage() = %+v", m)
	}
}

func TestVarints(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 64, 1 << 20, -(1 << 40)}
	e := NewEncoder()
	for _, v := range values {
		e.WriteSvarint(v)
	}
	d := NewDecoder(e.Bytes())
	for _, want := range values {
		got, err := d.ReadSvarint()
		if err != nil {
			t.Fatalf("ReadSvarint() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadSvarint() = %d, want %d", got, want)
		}
	}
	if !d.EOF() {
		t.Errorf("Remaining() = %d, want 0", d.Remaining())
	}
}

func TestDecoderLimits(t *testing.T) {
	t.Run("overflow", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xff}, 11)
		if _, err := NewDecoder(buf).ReadUvarint(); !errors.Is(err, ErrVarintOverflow) {
			t.Errorf("error = %v, want ErrVarintOverflow", err)
		}
	})

	t.Run("allocation", func(t *testing.T) {
		e := NewEncoder()
		e.WriteUvarint(MaxAllocation + 1)
		if _, err := NewDecoder(e.Bytes()).ReadString(); !errors.Is(err, ErrAllocationTooLarge) {
			t.Errorf("error = %v, want ErrAllocationTooLarge", err)
		}
	})

	t.Run("empty_bytes_are_nil", func(t *testing.T) {
		e := NewEncoder()
		e.WriteLenBytes(nil)
		b, err := NewDecoder(e.Bytes()).ReadLenBytes()
		if err != nil || b != nil {
			t.Errorf("ReadLenBytes() = %v, %v; want nil, nil", b, err)
		}
	})
}
