package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BusinessSettings is a singleton row. Currency, tax rate and thresholds are
// display/config concerns; the aggregation engine only reads the timezone and
// passes the rest through to consumers.
type BusinessSettings struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessName      string          `gorm:"size:255" json:"business_name"`
	CurrencyLabel     string          `gorm:"size:10" json:"currency_label"`
	TaxRatePercent    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate_percent"`
	LowStockThreshold int             `gorm:"default:5" json:"low_stock_threshold"`
	Timezone          string          `gorm:"size:64" json:"timezone"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusinessSettings struct {
	BusinessName      string          `json:"business_name"`
	CurrencyLabel     string          `json:"currency_label"`
	TaxRatePercent    decimal.Decimal `json:"tax_rate_percent"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	Timezone          string          `json:"timezone"`
}

const settingsCacheKey = "BusinessSettings"

// GetBusinessSettings returns the singleton settings row, or defaults when
// none has been saved yet. Every report read goes through this, so the row is
// cached in redis until the next update.
func GetBusinessSettings(ctx context.Context) (*BusinessSettings, error) {
	var cached BusinessSettings
	if found, err := config.GetRedisObject(settingsCacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	db := config.GetDB()

	var settings BusinessSettings
	err := db.WithContext(ctx).Order("id").First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &BusinessSettings{
				CurrencyLabel:     "MMK",
				LowStockThreshold: DefaultReorderLevel,
				Timezone:          "UTC",
			}, nil
		}
		return nil, err
	}
	_ = config.SetRedisObject(settingsCacheKey, &settings, time.Hour)
	return &settings, nil
}

// UpdateBusinessSettings upserts the singleton settings row.
func UpdateBusinessSettings(ctx context.Context, input *NewBusinessSettings) (*BusinessSettings, error) {
	db := config.GetDB()

	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return nil, errors.New("invalid timezone")
		}
	}
	if input.TaxRatePercent.IsNegative() {
		return nil, errors.New("tax rate must not be negative")
	}

	var settings BusinessSettings
	err := db.WithContext(ctx).Order("id").First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings.BusinessName = input.BusinessName
	settings.CurrencyLabel = input.CurrencyLabel
	settings.TaxRatePercent = input.TaxRatePercent
	settings.LowStockThreshold = input.LowStockThreshold
	settings.Timezone = input.Timezone

	if err := db.WithContext(ctx).Save(&settings).Error; err != nil {
		return nil, err
	}
	_ = config.RemoveRedisKey(settingsCacheKey)
	return &settings, nil
}
