package boot

import (
	"agencia/src/db"
	"agencia/src/lib"
	"agencia/src/models"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Reservation{},
		&models.Transfer{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler keeps the shared PayPal token cache warm so checkout
// requests rarely pay the OAuth round trip.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	client := lib.GetPayPalClient()
	if _, err := lib.CreateCronJob(client.WarmAccessToken, 6*time.Hour); err != nil {
		log.Printf("Error scheduling token warm-up: %s\n", err.Error())
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
