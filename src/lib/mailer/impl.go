package mailer

import (
	"agencia/src/config"
	"agencia/src/lib"
	"agencia/src/models"
	"agencia/src/utils"
	"fmt"
	"log"
	"os"
	"time"
)

type template struct {
	subject string
	body    string
}

var reservationTemplates = map[string]template{
	"fr": {
		subject: "Confirmation de réservation — %s",
		body:    "Bonjour %s,\n\nVotre réservation pour %s le %s (%d personne(s)) est confirmée.\nMontant payé : %s %s.\nRéférence de paiement : %s.\n\nÀ bientôt !",
	},
	"en": {
		subject: "Booking confirmation — %s",
		body:    "Hello %s,\n\nYour booking for %s on %s (%d traveller(s)) is confirmed.\nAmount paid: %s %s.\nPayment reference: %s.\n\nSee you soon!",
	},
	"es": {
		subject: "Confirmación de reserva — %s",
		body:    "Hola %s,\n\nTu reserva para %s el %s (%d persona(s)) está confirmada.\nImporte pagado: %s %s.\nReferencia de pago: %s.\n\n¡Hasta pronto!",
	},
}

var transferTemplates = map[string]template{
	"fr": {
		subject: "Demande de transport reçue",
		body:    "Bonjour %s,\n\nNous avons bien reçu votre demande de transport de %s à %s le %s (%d personne(s)).\nNous vous contacterons rapidement pour confirmer la disponibilité et le tarif.",
	},
	"en": {
		subject: "Transport request received",
		body:    "Hello %s,\n\nWe received your transport request from %s to %s on %s (%d traveller(s)).\nWe will get back to you shortly to confirm availability and price.",
	},
	"es": {
		subject: "Solicitud de transporte recibida",
		body:    "Hola %s,\n\nHemos recibido tu solicitud de transporte de %s a %s el %s (%d persona(s)).\nTe contactaremos pronto para confirmar disponibilidad y tarifa.",
	},
}

func humanDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(config.DATE_PARSE_FORMAT)
}

func fromAddress() (string, string) {
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@localhost"
	}
	return from, "Réservations"
}

// SendReservationConfirmation mails the buyer, with a copy to the agency
// inbox. Best-effort by contract: callers run it in a goroutine after the
// reservation row is already committed, and a failure here never rolls
// anything back.
func SendReservationConfirmation(r *models.Reservation, tourName string) error {
	if !lib.SMTPConfigured() {
		log.Println("[mailer] SMTP not configured, skipping reservation confirmation")
		return nil
	}
	tpl := reservationTemplates[utils.NormalizeLang(r.Lang)]
	from, fromName := fromAddress()
	to := []string{r.Email}
	if agency := os.Getenv("AGENCY_EMAIL"); agency != "" {
		to = append(to, agency)
	}
	return lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       to,
		Subject:  fmt.Sprintf(tpl.subject, tourName),
		Body:     fmt.Sprintf(tpl.body, r.Name, tourName, humanDate(r.Date), r.Persons, r.Amount, r.Currency, r.PaymentCaptureID),
	})
}

// SendTransferAck acknowledges a transport request.
func SendTransferAck(t *models.Transfer) error {
	if !lib.SMTPConfigured() {
		log.Println("[mailer] SMTP not configured, skipping transfer acknowledgement")
		return nil
	}
	tpl := transferTemplates[utils.NormalizeLang(t.Lang)]
	from, fromName := fromAddress()
	to := []string{t.Email}
	if agency := os.Getenv("AGENCY_EMAIL"); agency != "" {
		to = append(to, agency)
	}
	return lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       to,
		Subject:  tpl.subject,
		Body:     fmt.Sprintf(tpl.body, t.Name, t.Pickup, t.Dropoff, humanDate(t.Date), t.Persons),
	})
}
