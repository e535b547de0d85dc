package gameserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/is"

	"github.com/avolis/presenced/internal/gameserver"
	"github.com/avolis/presenced/internal/protocol"
)

func startServer(t *testing.T) string {
	t.Helper()

	server := gameserver.NewServer("pw", nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = server.Run(ctx) }()

	ts := httptest.NewServer(http.HandlerFunc(server.HandleWS))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	is := is.New(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	is.NoErr(err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame []byte) {
	t.Helper()
	is := is.New(t)
	is.NoErr(conn.WriteMessage(websocket.BinaryMessage, frame))
}

// readFrame reads until a frame with the wanted opcode arrives, skipping
// everything else (cycle frames tick continuously in the background).
func readFrame(t *testing.T, conn *websocket.Conn, op uint8) []byte {
	t.Helper()
	is := is.New(t)

	is.NoErr(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		is.NoErr(err)
		if len(data) > 0 && data[0] == op {
			return data
		}
	}
}

// readEvent reads until an events frame with the wanted sub-opcode arrives.
func readEvent(t *testing.T, conn *websocket.Conn, subop uint8) []byte {
	t.Helper()
	for {
		frame := readFrame(t, conn, protocol.SOpEvents)
		if frame[1] == subop {
			return frame
		}
	}
}

// readCycleWith reads cycle frames until one holds a record matching pred.
func readCycleWith(t *testing.T, conn *websocket.Conn, pred func(protocol.CycleRecord) bool) protocol.CycleRecord {
	t.Helper()
	is := is.New(t)

	for {
		frame := readFrame(t, conn, protocol.SOpCycle)
		records, err := protocol.DecodeCycle(frame)
		is.NoErr(err)
		for _, rec := range records {
			if pred(rec) {
				return rec
			}
		}
	}
}

func enter(t *testing.T, conn *websocket.Conn, nick string) uint16 {
	t.Helper()
	is := is.New(t)

	writeFrame(t, conn, protocol.NewWriter(protocol.COpPing).Bytes())
	readFrame(t, conn, protocol.SOpPong)

	writeFrame(t, conn, protocol.NewWriter(protocol.COpHello).PutU16(800).PutU16(600).Bytes())

	writeFrame(t, conn, protocol.NewWriter(protocol.COpEnterGame).
		PutU8(255).PutU8(0).PutU8(0).
		PutCStr(nick).PutCStr("").
		Bytes())

	id, _, err := protocol.DecodeEnteredGame(readFrame(t, conn, protocol.SOpEnteredGame))
	is.NoErr(err)
	is.True(id != 0)
	return id
}

func TestPingPong(t *testing.T) {
	url := startServer(t)
	conn := dial(t, url)

	writeFrame(t, conn, protocol.NewWriter(protocol.COpPing).Bytes())
	readFrame(t, conn, protocol.SOpPong)
}

func TestTwoPlayersScenario(t *testing.T) {
	is := is.New(t)

	url := startServer(t)

	alice := dial(t, url)
	bob := dial(t, url)

	idAlice := enter(t, alice, "Alice")
	idBob := enter(t, bob, "Bob")
	is.True(idAlice != idBob)

	// each side receives a creation record for the other
	recBob := readCycleWith(t, alice, func(r protocol.CycleRecord) bool {
		return r.ID == idBob && r.Flag == protocol.FlagCreate
	})
	is.Equal(recBob.Nick, "Bob")

	recAlice := readCycleWith(t, bob, func(r protocol.CycleRecord) bool {
		return r.ID == idAlice && r.Flag == protocol.FlagCreate
	})
	is.Equal(recAlice.Nick, "Alice")

	// cursor movement shows up as update records
	writeFrame(t, alice, protocol.NewWriter(protocol.COpInput).PutU16(400).PutU16(300).Bytes())
	rec := readCycleWith(t, bob, func(r protocol.CycleRecord) bool {
		return r.ID == idAlice && r.Flag == protocol.FlagUpdate && r.X == 32767
	})
	is.Equal(rec.Y, uint16(32767))

	// chat reaches both ends of the room
	writeFrame(t, alice, protocol.NewWriter(protocol.COpChat).PutCStr("hi").Bytes())
	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readEvent(t, conn, protocol.EventSentMessage)
		r := protocol.NewReader(frame[2:])
		id, err := r.U16()
		is.NoErr(err)
		is.Equal(id, idAlice)
		nick, err := r.CStr()
		is.NoErr(err)
		is.Equal(nick, "Alice")
		text, err := r.CStr()
		is.NoErr(err)
		is.Equal(text, "hi")
	}

	// the message is in the room history
	writeFrame(t, bob, protocol.NewWriter(protocol.COpListMessages).Bytes())
	entries, err := protocol.DecodeHistory(readFrame(t, bob, protocol.SOpHistory))
	is.NoErr(err)
	is.Equal(len(entries), 1)
	is.Equal(entries[0].Text, "hi")
	is.Equal(entries[0].OwnerID, idAlice)

	// alice changes room: both views drop the other side
	writeFrame(t, alice, protocol.NewWriter(protocol.COpChangeRoom).PutCStr("attic").Bytes())
	readCycleWith(t, bob, func(r protocol.CycleRecord) bool {
		return r.ID == idAlice && r.Flag == protocol.FlagRemove
	})
	readCycleWith(t, alice, func(r protocol.CycleRecord) bool {
		return r.ID == idBob && r.Flag == protocol.FlagRemove
	})

	// room listing now shows both rooms
	writeFrame(t, alice, protocol.NewWriter(protocol.COpListRooms).Bytes())
	config := readFrame(t, alice, protocol.SOpConfig)
	r := protocol.NewReader(config[1:])
	var rooms []string
	for r.Remaining() > 0 {
		room, err := r.CStr()
		is.NoErr(err)
		rooms = append(rooms, room)
	}
	is.Equal(rooms, []string{"attic", "lobby"})
}

func TestDisconnectAnnouncedOnce(t *testing.T) {
	url := startServer(t)

	alice := dial(t, url)
	bob := dial(t, url)

	idAlice := enter(t, alice, "Alice")
	idBob := enter(t, bob, "Bob")

	readCycleWith(t, alice, func(r protocol.CycleRecord) bool {
		return r.ID == idBob && r.Flag == protocol.FlagCreate
	})

	_ = bob.Close()

	readCycleWith(t, alice, func(r protocol.CycleRecord) bool {
		return r.ID == idBob && r.Flag == protocol.FlagRemove
	})
	_ = idAlice
}
