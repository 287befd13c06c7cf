package main

import (
	"agencia/src/db"
	"agencia/src/lib/mailer"
	"agencia/src/models"
	"agencia/src/pricing"
	"agencia/src/types"
	"agencia/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func transferRoutes(g *gin.Engine) *gin.Engine {
	g.POST("/transfer", func(ctx *gin.Context) {
		var body types.CreateTransferRequestBody
		if err := ctx.ShouldBind(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		transfer := models.Transfer{
			Name:    body.Name,
			Email:   body.Email,
			Phone:   body.Phone,
			Date:    utils.ParseTravelDate(body.Date),
			Pickup:  body.Pickup,
			Dropoff: body.Dropoff,
			Persons: pricing.CoercePartySize(body.Persons),
			Lang:    utils.NormalizeLang(body.Lang),
			Message: body.Message,
			Status:  string(types.TRANSFER_REQUESTED),
		}
		conn := db.GetDb()
		err := conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&transfer).Error; err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			log.Printf("Could not save transfer request: %s\n", err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Could not save the request"})
			return
		}
		go func() {
			if err := mailer.SendTransferAck(&transfer); err != nil {
				log.Printf("Could not send transfer acknowledgement %d: %s\n", transfer.ID, err.Error())
			}
		}()
		ctx.JSON(http.StatusOK, gin.H{"ok": true, "id": transfer.ID})
	})
	return g
}
