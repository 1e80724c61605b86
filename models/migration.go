package models

import (
	"log"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Sale{}, &Expense{}, &SaleReturn{},
		&Product{}, &Customer{}, &Supplier{},
		&BusinessSettings{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
