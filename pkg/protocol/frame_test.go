package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantLen int // expected total length including header
	}{
		{
			name:    "empty_payload",
			frame:   Frame{Type: FrameEvent, Payload: []byte{}},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "command",
			frame:   Frame{Type: FrameCommand, Payload: []byte{0x01, 0x02, 0x03}},
			wantLen: FrameHeaderSize + 3,
		},
		{
			name:    "with_flags",
			frame:   Frame{Type: FrameError, Flags: 0x05, Payload: []byte("test")},
			wantLen: FrameHeaderSize + 4,
		},
		{
			name:    "hello",
			frame:   Frame{Type: FrameHello, Payload: []byte{0x00, 0x01, '/'}},
			wantLen: FrameHeaderSize + 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != tc.wantLen {
				t.Errorf("Encode() length = %d, want %d", len(encoded), tc.wantLen)
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Type != tc.frame.Type {
				t.Errorf("Type = %v, want %v", decoded.Type, tc.frame.Type)
			}
			if decoded.Flags != tc.frame.Flags {
				t.Errorf("Flags = %d, want %d", decoded.Flags, tc.frame.Flags)
			}
			if !bytes.Equal(decoded.Payload, tc.frame.Payload) {
				t.Errorf("Payload = %v, want %v", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short_header", []byte{0x01, 0x00}, io.ErrUnexpectedEOF},
		{"truncated_payload", []byte{0x01, 0x00, 0x00, 0x05, 0x01}, io.ErrUnexpectedEOF},
		{"unknown_type", []byte{0x09, 0x00, 0x00, 0x00}, ErrInvalidFrameType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame(tc.data)
			if !errors.Is(err, tc.want) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	want := NewFrame(FrameEvent, []byte("payload"))
	if err := WriteFrame(&buf, want); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if got.Type != FrameEvent || string(got.Payload) != "payload" {
		t.Errorf("ReadFrame() = %+v", got)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	f := NewFrame(FrameEvent, make([]byte, MaxPayloadSize+1))
	if err := WriteFrame(io.Discard, f); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("WriteFrame() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := map[FrameType]string{
		FrameHello:    "Hello",
		FrameCommand:  "Command",
		FrameEvent:    "Event",
		FrameError:    "Error",
		FrameType(42): "Unknown",
	}
	for ft, want := range tests {
		if got := ft.String(); got != want {
			t.Errorf("FrameType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}
