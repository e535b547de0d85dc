package protocol

import "encoding"

// Client frame bodies. UnmarshalBinary takes the payload after the opcode
// byte; trailing garbage past the last field is tolerated (the original
// server read fields by offset and ignored the rest).

// Hello carries the declared viewport for hello, hello_bot and (with a
// trailing password) hello_debug.
type Hello struct {
	Width  uint16
	Height uint16
}

var _ encoding.BinaryUnmarshaler = (*Hello)(nil)

func (h *Hello) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	if h.Width, err = r.U16(); err != nil {
		return err
	}
	h.Height, err = r.U16()
	return err
}

type HelloDebug struct {
	Hello
	Password string
}

var _ encoding.BinaryUnmarshaler = (*HelloDebug)(nil)

func (h *HelloDebug) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	if h.Width, err = r.U16(); err != nil {
		return err
	}
	if h.Height, err = r.U16(); err != nil {
		return err
	}
	h.Password, err = r.CStr()
	return err
}

type EnterGame struct {
	R, G, B uint8
	Nick    string
	Room    string
}

var _ encoding.BinaryUnmarshaler = (*EnterGame)(nil)

func (e *EnterGame) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	if e.R, err = r.U8(); err != nil {
		return err
	}
	if e.G, err = r.U8(); err != nil {
		return err
	}
	if e.B, err = r.U8(); err != nil {
		return err
	}
	if e.Nick, err = r.CStr(); err != nil {
		return err
	}
	e.Room, err = r.CStr()
	return err
}

// CursorInput is a raw pixel position; normalization against the session's
// viewport happens at the player.
type CursorInput struct {
	X uint16
	Y uint16
}

var _ encoding.BinaryUnmarshaler = (*CursorInput)(nil)

func (c *CursorInput) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	if c.X, err = r.U16(); err != nil {
		return err
	}
	c.Y, err = r.U16()
	return err
}

type SetNick struct {
	Nick string
}

var _ encoding.BinaryUnmarshaler = (*SetNick)(nil)

func (n *SetNick) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	n.Nick, err = r.CStr()
	return err
}

type SetColor struct {
	R, G, B uint8
}

var _ encoding.BinaryUnmarshaler = (*SetColor)(nil)

func (c *SetColor) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	if c.R, err = r.U8(); err != nil {
		return err
	}
	if c.G, err = r.U8(); err != nil {
		return err
	}
	c.B, err = r.U8()
	return err
}

type Chat struct {
	Text string
}

var _ encoding.BinaryUnmarshaler = (*Chat)(nil)

func (c *Chat) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	c.Text, err = r.CStr()
	return err
}

type ChangeRoom struct {
	Room string
}

var _ encoding.BinaryUnmarshaler = (*ChangeRoom)(nil)

func (c *ChangeRoom) UnmarshalBinary(data []byte) error {
	r := NewReader(data)
	var err error
	c.Room, err = r.CStr()
	return err
}
