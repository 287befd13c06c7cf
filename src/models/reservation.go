package models

import (
	"agencia/src/types"
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	ReferenceID uuid.UUID  `gorm:"type:uuid" json:"reference_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Tour        string     `json:"tour"`
	Date        *time.Time `json:"date,omitempty"`
	Persons     int        `json:"persons"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Lang        string     `gorm:"default:'fr'" json:"lang,omitempty"`
	Message     string     `json:"message,omitempty"`
	Status      string     `gorm:"default:'paid'" json:"status,omitempty"`

	// A capture settles at most one reservation; the unique index is the
	// storage-level guarantee, multiple server instances may race here.
	PaymentCaptureID string `gorm:"uniqueIndex" json:"payment_capture_id"`
	PaymentOrderID   string `json:"payment_order_id,omitempty"`

	types.Timestamps
}
