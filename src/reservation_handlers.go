package main

import (
	"agencia/src/common"
	"agencia/src/pricing"
	"agencia/src/types"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func reservationRoutes(g *gin.Engine) *gin.Engine {
	g.POST("/reservation", func(ctx *gin.Context) {
		var body types.CreateReservationRequestBody
		if err := ctx.ShouldBind(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		co := common.GetCoordinator()
		reservation, err := co.FinalizeReservation(ctx.Request.Context(), &body)
		if err != nil {
			var tooLarge *pricing.GroupTooLargeError
			switch {
			case errors.Is(err, common.ErrPaymentNotConfirmed):
				ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Payment not confirmed"})
			case errors.As(err, &tooLarge), errors.Is(err, pricing.ErrUnknownTour):
				ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			default:
				log.Printf("Could not save reservation for capture [%s]: %s\n", body.PaypalCaptureID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Could not save the reservation"})
			}
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"id":        reservation.ID,
			"reference": reservation.ReferenceID,
		})
	})
	return g
}
