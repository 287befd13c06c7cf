package common

import (
	"agencia/src/db"
	"agencia/src/lib"
	"agencia/src/lib/mailer"
	"agencia/src/models"
	"agencia/src/pricing"
	"agencia/src/types"
	"agencia/src/utils"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrPaymentNotConfirmed blocks reservation persistence whenever the
// capture id from the form could not be independently verified COMPLETED.
var ErrPaymentNotConfirmed = errors.New("payment not confirmed")

// Coordinator drives a checkout from quote to committed reservation. It
// keeps no state between requests; every operation is one request/response
// unit, safe behind any number of workers.
type Coordinator struct {
	Schedule *pricing.Schedule
	Gateway  *lib.PayPalClient
}

var coordinator *Coordinator

func GetCoordinator() *Coordinator {
	if coordinator != nil {
		return coordinator
	}
	gw := lib.GetPayPalClient()
	cfg := gw.Config()
	coordinator = &Coordinator{
		Schedule: pricing.DefaultSchedule(cfg.Currency, cfg.FXRate),
		Gateway:  gw,
	}
	return coordinator
}

// NewCoordinator replaces the shared instance, used by tests.
func NewCoordinator(c *Coordinator) {
	coordinator = c
}

// BeginCheckout validates the quote and creates a gateway order for its
// total. Validation failures reject before any network call; no payment
// order ever exists for a quote that was never validly computed.
func (c *Coordinator) BeginCheckout(ctx context.Context, tour, persons string) (string, *pricing.Quote, error) {
	quote, err := c.Schedule.Quote(tour, pricing.CoercePartySize(persons))
	if err != nil {
		return "", nil, err
	}
	description := fmt.Sprintf("%s — %d personne(s)", c.Schedule.TourName(quote.Tour), quote.People)
	orderID, err := c.Gateway.CreateOrder(ctx, quote.Total.StringFixed(2), quote.Currency, description)
	if err != nil {
		return "", nil, err
	}
	return orderID, quote, nil
}

// CaptureCheckout submits the capture for a buyer-approved order. Gateway
// diagnostics pass through untouched so an operator can tell a merchant
// mismatch from a buyer cancellation.
func (c *Coordinator) CaptureCheckout(ctx context.Context, orderID string) (*lib.Capture, error) {
	return c.Gateway.CaptureOrder(ctx, orderID)
}

// FinalizeReservation is the authorization gate. The capture id arrives
// from the client's form and is trusted for nothing: only a fresh
// server-side verification of COMPLETED lets the reservation row be
// written. The storage-level unique index on payment_capture_id keeps a
// verified capture from settling twice across concurrent instances.
func (c *Coordinator) FinalizeReservation(ctx context.Context, body *types.CreateReservationRequestBody) (*models.Reservation, error) {
	quote, err := c.Schedule.Quote(body.Tour, pricing.CoercePartySize(body.Persons))
	if err != nil {
		return nil, err
	}
	if !c.Gateway.VerifyCapture(ctx, body.PaypalCaptureID) {
		return nil, ErrPaymentNotConfirmed
	}
	reservation := models.Reservation{
		ReferenceID:      uuid.New(),
		Name:             body.Name,
		Email:            body.Email,
		Phone:            body.Phone,
		Tour:             quote.Tour,
		Date:             utils.ParseTravelDate(body.Date),
		Persons:          quote.People,
		Amount:           quote.Total.StringFixed(2),
		Currency:         quote.Currency,
		Lang:             utils.NormalizeLang(body.Lang),
		Message:          body.Message,
		Status:           string(types.RESERVATION_PAID),
		PaymentCaptureID: body.PaypalCaptureID,
		PaymentOrderID:   body.PaypalOrderID,
	}
	conn := db.GetDb()
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("Error persisting reservation for capture %s: %s\n", body.PaypalCaptureID, err.Error())
		return nil, err
	}
	tourName := c.Schedule.TourName(reservation.Tour)
	go func() {
		if err := mailer.SendReservationConfirmation(&reservation, tourName); err != nil {
			log.Printf("Could not send confirmation for reservation %d: %s\n", reservation.ID, err.Error())
		}
	}()
	return &reservation, nil
}
