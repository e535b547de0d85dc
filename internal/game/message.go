package game

// Message is an immutable chat record. Owner fields are copied at send time
// so history stays correct after the owner renames or leaves.
type Message struct {
	Content   string
	OwnerNick string
	OwnerHue  uint16
	OwnerID   uint16
	Timestamp float64 // seconds since epoch
}
