package models

import (
	"agencia/src/types"
	"time"
)

type Transfer struct {
	ID      uint       `gorm:"primarykey" json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
	Pickup  string     `json:"pickup"`
	Dropoff string     `json:"dropoff"`
	Persons int        `json:"persons"`
	Lang    string     `gorm:"default:'fr'" json:"lang,omitempty"`
	Message string     `json:"message,omitempty"`
	Status  string     `gorm:"default:'requested'" json:"status,omitempty"`

	types.Timestamps
}
