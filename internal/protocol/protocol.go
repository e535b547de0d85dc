// Package protocol implements the binary wire format: one opcode-tagged
// frame per websocket binary message, big-endian integers, 0x00-terminated
// UTF-8 strings.
package protocol

import (
	"fmt"

	"github.com/avolis/presenced/internal/byteorder"
)

const (
	// FrameMaxSize bounds a single inbound frame. 4 KiB comfortably fits
	// the largest legal client frame (chat at 200 bytes).
	FrameMaxSize = 4 << 10

	MaxNickLen = 18
	MaxChatLen = 200
)

// Client -> server opcodes (byte 0 of a frame).
const (
	COpPing         uint8 = 0x00
	COpHello        uint8 = 0x01
	COpHelloBot     uint8 = 0x02
	COpHelloDebug   uint8 = 0x03
	COpEnterGame    uint8 = 0x04
	COpLeaveGame    uint8 = 0x05
	COpResize       uint8 = 0x06
	COpInput        uint8 = 0x07
	COpNick         uint8 = 0x08
	COpColor        uint8 = 0x09
	COpChat         uint8 = 0x10
	COpChangeRoom   uint8 = 0x11
	COpListRooms    uint8 = 0x12
	COpListMessages uint8 = 0x13
)

// Server -> client opcodes.
const (
	SOpPong        uint8 = 0x00
	SOpEnteredGame uint8 = 0xA1
	SOpCycle       uint8 = 0xA3
	SOpEvents      uint8 = 0xB1
	SOpHistory     uint8 = 0xB2
	SOpConfig      uint8 = 0xB3
)

// Cycle record flags (byte after the record's u16 player id).
const (
	FlagCreate    uint8 = 0xC0
	FlagCreateBot uint8 = 0xC1
	FlagUpdate    uint8 = 0xC2
	FlagRemove    uint8 = 0xC3
	FlagCreateDev uint8 = 0xC4
)

// Event sub-opcodes (byte 1 of an events frame).
const (
	EventSentMessage  uint8 = 0x11
	EventEnteredRoom  uint8 = 0x12
	EventLeftRoom     uint8 = 0x13
	EventEnteredGame  uint8 = 0x14
	EventLeftGame     uint8 = 0x15
	EventUpdatedNick  uint8 = 0x16
	EventUpdatedHue   uint8 = 0x17
	EventUpdatedColor uint8 = 0x18
	EventCreatedRoom  uint8 = 0x19
	EventUpdatedRoom  uint8 = 0x1A
	EventDeletedRoom  uint8 = 0x1B
)

// Session classifications.
const (
	SessionPlayer uint8 = 0xD1
	SessionDev    uint8 = 0xD2
	SessionBot    uint8 = 0xD7
)

// ParseError reports a malformed frame. It never escapes the single frame
// being decoded; the opcode handler decides whether it is fatal.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "malformed frame: " + e.Reason
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// Reader decodes fields from a frame payload left to right.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) U8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, parseErrorf("want u8 at offset %d, %d bytes left", r.off, r.Remaining())
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, parseErrorf("want u16 at offset %d, %d bytes left", r.off, r.Remaining())
	}
	v := byteorder.Ntohs(r.buf[r.off : r.off+2])
	r.off += 2
	return v, nil
}

func (r *Reader) F64() (float64, error) {
	if r.Remaining() < 8 {
		return 0, parseErrorf("want f64 at offset %d, %d bytes left", r.off, r.Remaining())
	}
	v := byteorder.NtohF64(r.buf[r.off : r.off+8])
	r.off += 8
	return v, nil
}

// CStr reads bytes up to (and consuming) the 0x00 terminator.
func (r *Reader) CStr() (string, error) {
	for i := r.off; i < len(r.buf); i++ {
		if r.buf[i] == 0x00 {
			s := string(r.buf[r.off:i])
			r.off = i + 1
			return s, nil
		}
	}
	return "", parseErrorf("string at offset %d has no terminator", r.off)
}

// Writer builds an outbound frame starting with its opcode.
type Writer struct {
	buf []byte
}

func NewWriter(op uint8) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.buf = append(w.buf, op)
	return w
}

func (w *Writer) PutU8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) PutU16(v uint16) *Writer {
	w.buf = append(w.buf, byteorder.Htons(v)...)
	return w
}

func (w *Writer) PutF64(v float64) *Writer {
	w.buf = append(w.buf, byteorder.HtonF64(v)...)
	return w
}

func (w *Writer) PutCStr(s string) *Writer {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0x00)
	return w
}

func (w *Writer) Bytes() []byte {
	return w.buf
}
