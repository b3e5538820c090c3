package app

import (
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/repos"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	Product      repos.ProductRepo
	Order        repos.OrderRepo
	OrderHistory repos.OrderHistoryRepo
	Asset        repos.AssetRepo
	MeterReading repos.MeterReadingRepo
	LedgerJob    repos.LedgerJobRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		Product:      repos.NewProductRepo(db, log),
		Order:        repos.NewOrderRepo(db, log),
		OrderHistory: repos.NewOrderHistoryRepo(db, log),
		Asset:        repos.NewAssetRepo(db, log),
		MeterReading: repos.NewMeterReadingRepo(db, log),
		LedgerJob:    repos.NewLedgerJobRepo(db, log),
	}
}
