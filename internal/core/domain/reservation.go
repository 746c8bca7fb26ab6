package domain

import "time"

// ReservationStatus is the lifecycle state of a checkout hold.
type ReservationStatus string

const (
	Reserved ReservationStatus = "RESERVED"
	Consumed ReservationStatus = "CONSUMED"
	Expired  ReservationStatus = "EXPIRED"
	Released ReservationStatus = "RELEASED"
)

// Terminal reports whether no further transition is allowed from s.
func (s ReservationStatus) Terminal() bool {
	return s == Consumed || s == Expired || s == Released
}

// Reservation is a short-lived soft hold on stock during checkout. It never
// mutates quantity-on-hand; it only reduces the sellable quantity until it is
// consumed into an order or lapses.
type Reservation struct {
	ReservationID string            `json:"reservationID"`
	StockItemID   string            `json:"stockItemID"`
	Quantity      int64             `json:"quantity"`
	CartRef       string            `json:"cartRef"`
	Status        ReservationStatus `json:"status"`
	ExpiresAt     time.Time         `json:"expiresAt"`
	OrderRef      string            `json:"orderRef,omitempty"`
	ConsumedAt    *time.Time        `json:"consumedAt,omitempty"`
	AuditFields
}
