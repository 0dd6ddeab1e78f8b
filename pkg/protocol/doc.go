// Package protocol implements the binary navigation channel between the
// server and a browser tab.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHello (0x00): Tab → Server, initial location
//   - FrameCommand (0x01): Server → Tab, history mutations
//   - FrameEvent (0x02): Tab → Server, location changes seen by the tab
//   - FrameError (0x03): Either direction, fatal error
//
// # Encoding
//
//   - Varint: Compact encoding for small integers (protobuf-style)
//   - ZigZag: Signed integers (the Go delta) encoded as unsigned varints
//   - Length-prefixed: Strings and byte arrays prefixed with varint length
//
// # Commands
//
//	Push/Replace: [Op][Href: len-prefixed][Key: len-prefixed][Value: len-prefixed JSON]
//	Go:           [Op][Delta: zigzag varint]
//	Guard:        [Op][Enabled: bool]
//
// # Events
//
//	[Kind][Href: len-prefixed][Key: len-prefixed][Value: len-prefixed JSON]
//
// Href is the tab's pathname + search + hash after the change.
package protocol
