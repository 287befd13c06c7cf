package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type ReservationStatus string
type TransferStatus string

const (
	RESERVATION_PAID ReservationStatus = "paid"

	TRANSFER_REQUESTED TransferStatus = "requested"
)

type CreateOrderRequestBody struct {
	Tour    string `json:"tour" binding:"required"`
	Persons string `json:"persons"`
}

type CreateReservationRequestBody struct {
	Name            string `form:"name" json:"name" binding:"required"`
	Email           string `form:"email" json:"email" binding:"required,email"`
	Phone           string `form:"phone" json:"phone"`
	Tour            string `form:"tour" json:"tour" binding:"required"`
	Date            string `form:"date" json:"date" binding:"required,traveldate"`
	Persons         string `form:"persons" json:"persons"`
	Lang            string `form:"lang" json:"lang"`
	Message         string `form:"message" json:"message"`
	PaypalOrderID   string `form:"paypal_order_id" json:"paypal_order_id"`
	PaypalCaptureID string `form:"paypal_capture_id" json:"paypal_capture_id" binding:"required"`
}

type CreateTransferRequestBody struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Email   string `form:"email" json:"email" binding:"required,email"`
	Phone   string `form:"phone" json:"phone"`
	Date    string `form:"date" json:"date" binding:"required,traveldate"`
	Pickup  string `form:"pickup" json:"pickup" binding:"required"`
	Dropoff string `form:"dropoff" json:"dropoff" binding:"required"`
	Persons string `form:"persons" json:"persons"`
	Lang    string `form:"lang" json:"lang"`
	Message string `form:"message" json:"message"`
}
