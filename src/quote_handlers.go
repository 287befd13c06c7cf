package main

import (
	"agencia/src/common"
	"agencia/src/pricing"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func quoteRoutes(g *gin.Engine) *gin.RouterGroup {
	api := apiGroup(g)
	api.GET("/quote", func(ctx *gin.Context) {
		tour := ctx.Query("tour")
		people := pricing.CoercePartySize(ctx.Query("people"))
		co := common.GetCoordinator()
		quote, err := co.Schedule.Quote(tour, people)
		if err != nil {
			var tooLarge *pricing.GroupTooLargeError
			if errors.As(err, &tooLarge) {
				ctx.JSON(http.StatusBadRequest, gin.H{
					"ok":      false,
					"message": "Online booking is limited for this tour, please contact us for larger groups",
					"max":     tooLarge.Max,
				})
				return
			}
			ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "Unknown tour"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"per_person": quote.Unit.StringFixed(2),
			"total":      quote.Total.StringFixed(2),
			"currency":   quote.Currency,
			"people":     quote.People,
		})
	})
	return api
}
