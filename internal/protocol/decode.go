package protocol

// Client-side decoders for server frames. The server never consumes these;
// bots and tests do.

// CycleRecord is one decoded view-diff record. X, Y, Hue and Nick are only
// meaningful for the flags that carry them.
type CycleRecord struct {
	ID   uint16
	Flag uint8
	X    uint16
	Y    uint16
	Hue  uint16
	Nick string
}

// DecodeCycle parses a cycle frame up to its two-zero-byte terminator. The
// terminator cannot alias a record because player id 0 is never allocated.
func DecodeCycle(frame []byte) ([]CycleRecord, error) {
	if len(frame) == 0 || frame[0] != SOpCycle {
		return nil, parseErrorf("not a cycle frame")
	}

	var records []CycleRecord
	r := NewReader(frame[1:])
	for {
		id, err := r.U16()
		if err != nil {
			return nil, err
		}
		if id == 0 {
			return records, nil
		}

		rec := CycleRecord{ID: id}
		if rec.Flag, err = r.U8(); err != nil {
			return nil, err
		}
		switch rec.Flag {
		case FlagCreate, FlagCreateBot, FlagCreateDev:
			if rec.X, err = r.U16(); err != nil {
				return nil, err
			}
			if rec.Y, err = r.U16(); err != nil {
				return nil, err
			}
			if rec.Hue, err = r.U16(); err != nil {
				return nil, err
			}
			if rec.Nick, err = r.CStr(); err != nil {
				return nil, err
			}
		case FlagUpdate:
			if rec.X, err = r.U16(); err != nil {
				return nil, err
			}
			if rec.Y, err = r.U16(); err != nil {
				return nil, err
			}
		case FlagRemove:
		default:
			return nil, parseErrorf("unknown cycle record flag %#x", rec.Flag)
		}
		records = append(records, rec)
	}
}

func DecodeEnteredGame(frame []byte) (id, hue uint16, err error) {
	if len(frame) == 0 || frame[0] != SOpEnteredGame {
		return 0, 0, parseErrorf("not an entered_game frame")
	}
	r := NewReader(frame[1:])
	if id, err = r.U16(); err != nil {
		return 0, 0, err
	}
	if hue, err = r.U16(); err != nil {
		return 0, 0, err
	}
	return id, hue, nil
}

func DecodeHistory(frame []byte) ([]HistoryEntry, error) {
	if len(frame) == 0 || frame[0] != SOpHistory {
		return nil, parseErrorf("not a history frame")
	}

	var entries []HistoryEntry
	r := NewReader(frame[1:])
	for r.Remaining() > 0 {
		var (
			e   HistoryEntry
			err error
		)
		if e.OwnerID, err = r.U16(); err != nil {
			return nil, err
		}
		if e.OwnerHue, err = r.U16(); err != nil {
			return nil, err
		}
		if e.Timestamp, err = r.F64(); err != nil {
			return nil, err
		}
		if e.Nick, err = r.CStr(); err != nil {
			return nil, err
		}
		if e.Text, err = r.CStr(); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
