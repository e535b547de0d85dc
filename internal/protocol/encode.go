package protocol

import "github.com/avolis/presenced/internal/debug"

// Server frame builders.

func EncodePong() []byte {
	return NewWriter(SOpPong).Bytes()
}

func EncodeEnteredGame(id, hue uint16) []byte {
	return NewWriter(SOpEnteredGame).PutU16(id).PutU16(hue).Bytes()
}

// Cycle accumulates one tick's view-diff records for a single recipient.
// The record list is terminated by two zero bytes; player id 0 is reserved
// so the terminator can never alias a record prefix.
type Cycle struct {
	w *Writer
	n int
}

func NewCycle() *Cycle {
	return &Cycle{w: NewWriter(SOpCycle)}
}

// AddCreate emits a full record: flag must be one of FlagCreate,
// FlagCreateBot, FlagCreateDev.
func (c *Cycle) AddCreate(id uint16, flag uint8, x, y, hue uint16, nick string) {
	debug.Assert(flag == FlagCreate || flag == FlagCreateBot || flag == FlagCreateDev)
	debug.Assert(id != 0)
	c.w.PutU16(id).PutU8(flag).PutU16(x).PutU16(y).PutU16(hue).PutCStr(nick)
	c.n++
}

func (c *Cycle) AddUpdate(id, x, y uint16) {
	c.w.PutU16(id).PutU8(FlagUpdate).PutU16(x).PutU16(y)
	c.n++
}

func (c *Cycle) AddRemove(id uint16) {
	c.w.PutU16(id).PutU8(FlagRemove)
	c.n++
}

// Len reports how many records have been added.
func (c *Cycle) Len() int {
	return c.n
}

func (c *Cycle) Finish() []byte {
	return c.w.PutU16(0).Bytes()
}

func EncodeEventSentMessage(id uint16, nick, text string) []byte {
	return NewWriter(SOpEvents).PutU8(EventSentMessage).PutU16(id).PutCStr(nick).PutCStr(text).Bytes()
}

func EncodeEventEnteredRoom(id uint16, room string) []byte {
	return NewWriter(SOpEvents).PutU8(EventEnteredRoom).PutU16(id).PutCStr(room).Bytes()
}

func EncodeEventLeftRoom(id uint16, room string) []byte {
	return NewWriter(SOpEvents).PutU8(EventLeftRoom).PutU16(id).PutCStr(room).Bytes()
}

func EncodeEventEnteredGame(id uint16, nick string) []byte {
	return NewWriter(SOpEvents).PutU8(EventEnteredGame).PutU16(id).PutCStr(nick).Bytes()
}

func EncodeEventLeftGame(id uint16) []byte {
	return NewWriter(SOpEvents).PutU8(EventLeftGame).PutU16(id).Bytes()
}

func EncodeEventUpdatedNick(id uint16, nick string) []byte {
	return NewWriter(SOpEvents).PutU8(EventUpdatedNick).PutU16(id).PutCStr(nick).Bytes()
}

func EncodeEventUpdatedColor(id, hue uint16) []byte {
	return NewWriter(SOpEvents).PutU8(EventUpdatedColor).PutU16(id).PutU16(hue).Bytes()
}

func EncodeEventCreatedRoom(room string) []byte {
	return NewWriter(SOpEvents).PutU8(EventCreatedRoom).PutCStr(room).Bytes()
}

// HistoryEntry is one chat record in a history frame.
type HistoryEntry struct {
	OwnerID   uint16
	OwnerHue  uint16
	Timestamp float64
	Nick      string
	Text      string
}

func EncodeHistory(entries []HistoryEntry) []byte {
	w := NewWriter(SOpHistory)
	for _, e := range entries {
		w.PutU16(e.OwnerID).PutU16(e.OwnerHue).PutF64(e.Timestamp)
		w.PutCStr(e.Nick).PutCStr(e.Text)
	}
	return w.Bytes()
}

func EncodeConfig(rooms []string) []byte {
	w := NewWriter(SOpConfig)
	for _, room := range rooms {
		w.PutCStr(room)
	}
	return w.Bytes()
}
