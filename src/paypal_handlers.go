package main

import (
	"agencia/src/common"
	"agencia/src/lib"
	"agencia/src/pricing"
	"agencia/src/types"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func checkoutRoutes(g *gin.Engine) *gin.Engine {
	g.POST("/create-paypal-order", func(ctx *gin.Context) {
		var body types.CreateOrderRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		co := common.GetCoordinator()
		orderID, quote, err := co.BeginCheckout(ctx.Request.Context(), body.Tour, body.Persons)
		if err != nil {
			var tooLarge *pricing.GroupTooLargeError
			switch {
			case errors.As(err, &tooLarge):
				ctx.JSON(http.StatusBadRequest, gin.H{"error": tooLarge.Error()})
			case errors.Is(err, pricing.ErrUnknownTour):
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tour"})
			case lib.IsTimeout(err):
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "The payment provider is not responding, please try again"})
			default:
				log.Printf("Error creating order for tour [%s]: %s\n", body.Tour, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not create the payment order"})
			}
			return
		}
		log.Printf("Created order %s for %s x%d (%s %s)\n", orderID, quote.Tour, quote.People, quote.Total.StringFixed(2), quote.Currency)
		ctx.JSON(http.StatusOK, gin.H{"id": orderID})
	})

	g.POST("/capture-paypal-order/:order_id", func(ctx *gin.Context) {
		var params struct {
			OrderID string `uri:"order_id" binding:"required"`
		}
		if err := ctx.ShouldBindUri(&params); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		co := common.GetCoordinator()
		capture, err := co.CaptureCheckout(ctx.Request.Context(), params.OrderID)
		if err != nil {
			var ce *lib.CaptureError
			if errors.As(err, &ce) {
				ctx.JSON(http.StatusBadRequest, gin.H{
					"error":  "Could not capture the payment",
					"reason": ce.Reason,
					"hint":   ce.Hint,
				})
				return
			}
			log.Printf("Error capturing order [%s]: %s\n", params.OrderID, err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not capture the payment"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"id":     capture.ID,
			"status": capture.Status,
			"raw":    json.RawMessage(capture.Raw),
		})
	})
	return g
}
