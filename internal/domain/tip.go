package domain

// Tip is a shared wellness tip. Immutable once active; retiring a tip
// clears the Active flag instead of deleting the row.
type Tip struct {
	ID       int64
	Text     string
	Category string
	Active   bool
}

// TipPreference controls the daily tip broadcast for one user.
type TipPreference struct {
	Addr          string
	ReceiveTips   bool
	PreferredTime string
}
