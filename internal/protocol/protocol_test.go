package protocol_test

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/avolis/presenced/internal/protocol"
)

func TestReaderWriterRoundTrip(t *testing.T) {
	is := is.New(t)

	frame := protocol.NewWriter(0x42).
		PutU8(7).
		PutU16(0xBEEF).
		PutF64(1726000000.25).
		PutCStr("Alice").
		Bytes()

	r := protocol.NewReader(frame)

	op, err := r.U8()
	is.NoErr(err)
	is.Equal(op, uint8(0x42))

	v8, err := r.U8()
	is.NoErr(err)
	is.Equal(v8, uint8(7))

	v16, err := r.U16()
	is.NoErr(err)
	is.Equal(v16, uint16(0xBEEF))

	f, err := r.F64()
	is.NoErr(err)
	is.Equal(f, 1726000000.25)

	s, err := r.CStr()
	is.NoErr(err)
	is.Equal(s, "Alice")
	is.Equal(r.Remaining(), 0)
}

func TestCStrMissingTerminator(t *testing.T) {
	is := is.New(t)

	r := protocol.NewReader([]byte("no terminator here"))
	_, err := r.CStr()

	var parseErr *protocol.ParseError
	is.True(errors.As(err, &parseErr))
}

func TestReaderShortBuffer(t *testing.T) {
	is := is.New(t)

	r := protocol.NewReader([]byte{0x01})
	_, err := r.U16()

	var parseErr *protocol.ParseError
	is.True(errors.As(err, &parseErr))
}

func TestHelloDecoding(t *testing.T) {
	is := is.New(t)

	payload := []byte{0x03, 0x20, 0x02, 0x58} // 800x600

	var h protocol.Hello
	is.NoErr(h.UnmarshalBinary(payload))
	is.Equal(h.Width, uint16(800))
	is.Equal(h.Height, uint16(600))

	var hd protocol.HelloDebug
	is.NoErr(hd.UnmarshalBinary(append(payload, 'p', 'w', 0x00)))
	is.Equal(hd.Width, uint16(800))
	is.Equal(hd.Password, "pw")

	is.True(h.UnmarshalBinary([]byte{0x03, 0x20}) != nil) // too short
}

func TestEnterGameDecoding(t *testing.T) {
	is := is.New(t)

	payload := []byte{255, 0, 0}
	payload = append(payload, 'A', 'l', 'i', 'c', 'e', 0x00)
	payload = append(payload, 'l', 'o', 'b', 'b', 'y', 0x00)

	var e protocol.EnterGame
	is.NoErr(e.UnmarshalBinary(payload))
	is.Equal(e.R, uint8(255))
	is.Equal(e.Nick, "Alice")
	is.Equal(e.Room, "lobby")

	// missing room terminator
	var bad protocol.EnterGame
	is.True(bad.UnmarshalBinary(payload[:len(payload)-1]) != nil)
}

func TestCycleFrameLayout(t *testing.T) {
	is := is.New(t)

	c := protocol.NewCycle()
	c.AddCreate(0x0102, protocol.FlagCreate, 10, 20, 226, "Bob")
	c.AddUpdate(0x0304, 30, 40)
	c.AddRemove(0x0506)
	is.Equal(c.Len(), 3)
	frame := c.Finish()

	is.Equal(frame[0], protocol.SOpCycle)
	// terminator
	is.Equal(frame[len(frame)-2:], []byte{0x00, 0x00})

	records, err := protocol.DecodeCycle(frame)
	is.NoErr(err)
	is.Equal(len(records), 3)

	is.Equal(records[0], protocol.CycleRecord{
		ID: 0x0102, Flag: protocol.FlagCreate, X: 10, Y: 20, Hue: 226, Nick: "Bob",
	})
	is.Equal(records[1], protocol.CycleRecord{ID: 0x0304, Flag: protocol.FlagUpdate, X: 30, Y: 40})
	is.Equal(records[2], protocol.CycleRecord{ID: 0x0506, Flag: protocol.FlagRemove})
}

func TestEmptyCycleFrame(t *testing.T) {
	is := is.New(t)

	frame := protocol.NewCycle().Finish()
	is.Equal(frame, []byte{protocol.SOpCycle, 0x00, 0x00})

	records, err := protocol.DecodeCycle(frame)
	is.NoErr(err)
	is.Equal(len(records), 0)
}

func TestEventSentMessageLayout(t *testing.T) {
	is := is.New(t)

	frame := protocol.EncodeEventSentMessage(7, "Alice", "hi")
	is.Equal(frame[0], protocol.SOpEvents)
	is.Equal(frame[1], protocol.EventSentMessage)

	r := protocol.NewReader(frame[2:])
	id, err := r.U16()
	is.NoErr(err)
	is.Equal(id, uint16(7))

	nick, err := r.CStr()
	is.NoErr(err)
	is.Equal(nick, "Alice")

	text, err := r.CStr()
	is.NoErr(err)
	is.Equal(text, "hi")
}

func TestHistoryEncoding(t *testing.T) {
	is := is.New(t)

	entries := []protocol.HistoryEntry{
		{OwnerID: 1, OwnerHue: 120, Timestamp: 1726000000.5, Nick: "Alice", Text: "hi"},
		{OwnerID: 2, OwnerHue: 240, Timestamp: 1726000001.5, Nick: "Bob", Text: "hello"},
	}

	decoded, err := protocol.DecodeHistory(protocol.EncodeHistory(entries))
	is.NoErr(err)
	is.Equal(decoded, entries)
}

func TestEnteredGameEncoding(t *testing.T) {
	is := is.New(t)

	id, hue, err := protocol.DecodeEnteredGame(protocol.EncodeEnteredGame(0x1234, 300))
	is.NoErr(err)
	is.Equal(id, uint16(0x1234))
	is.Equal(hue, uint16(300))
}
