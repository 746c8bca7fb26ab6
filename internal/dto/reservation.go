package dto

import (
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// ReserveRequest places a checkout hold on stock.
type ReserveRequest struct {
	StockItemID string `json:"stockItemID" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	CartRef     string `json:"cartRef" binding:"required"`
	// TTLSeconds overrides the configured default reservation lifetime.
	TTLSeconds *int64 `json:"ttlSeconds,omitempty" binding:"omitempty,gt=0"`
}

// ConsumeReservationRequest ties a reservation to an order.
type ConsumeReservationRequest struct {
	OrderRef string `json:"orderRef" binding:"required"`
}

// ReservationResponse defines the data returned for a reservation.
type ReservationResponse struct {
	ReservationID string     `json:"reservationID"`
	StockItemID   string     `json:"stockItemID"`
	Quantity      int64      `json:"quantity"`
	CartRef       string     `json:"cartRef"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	OrderRef      string     `json:"orderRef,omitempty"`
	ConsumedAt    *time.Time `json:"consumedAt,omitempty"`
}

// ToReservationResponse converts a domain.Reservation to its response DTO.
func ToReservationResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ReservationID,
		StockItemID:   r.StockItemID,
		Quantity:      r.Quantity,
		CartRef:       r.CartRef,
		Status:        string(r.Status),
		ExpiresAt:     r.ExpiresAt,
		OrderRef:      r.OrderRef,
		ConsumedAt:    r.ConsumedAt,
	}
}
