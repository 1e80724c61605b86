package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

type SaleReturn struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SaleId       int             `gorm:"index;not null" json:"sale_id" binding:"required"`
	ProductName  string          `gorm:"size:255" json:"product_name"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"refund_amount"`
	Reason       string          `gorm:"type:text" json:"reason"`
	ReturnDate   time.Time       `gorm:"not null;index" json:"return_date"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSaleReturn struct {
	SaleId       int             `json:"sale_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Reason       string          `json:"reason"`
	ReturnDate   time.Time       `json:"return_date" binding:"required"`
}

func CreateSaleReturn(ctx context.Context, input *NewSaleReturn) (*SaleReturn, error) {
	db := config.GetDB()

	if input.Quantity.IsNegative() {
		return nil, errors.New("quantity must not be negative")
	}
	if input.RefundAmount.IsNegative() {
		return nil, errors.New("refund amount must not be negative")
	}

	sale, err := utils.FetchModel[Sale](ctx, input.SaleId)
	if err != nil {
		return nil, err
	}
	if input.Quantity.GreaterThan(sale.Quantity) {
		return nil, errors.New("return quantity exceeds sold quantity")
	}

	saleReturn := SaleReturn{
		SaleId:       sale.ID,
		ProductName:  sale.ProductName,
		Quantity:     input.Quantity,
		RefundAmount: input.RefundAmount,
		Reason:       input.Reason,
		ReturnDate:   input.ReturnDate,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&saleReturn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Returned goods go back on the shelf when the product is tracked.
	if err := adjustProductStock(ctx, tx, sale.ProductName, input.Quantity); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &saleReturn, nil
}

func GetSaleReturn(ctx context.Context, id int) (*SaleReturn, error) {
	return utils.FetchModel[SaleReturn](ctx, id)
}

// ListSaleReturns returns sale returns within [fromDate, toDate]; zero bounds are open.
func ListSaleReturns(ctx context.Context, fromDate, toDate time.Time) ([]*SaleReturn, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&SaleReturn{})
	if !fromDate.IsZero() {
		dbCtx = dbCtx.Where("return_date >= ?", fromDate)
	}
	if !toDate.IsZero() {
		dbCtx = dbCtx.Where("return_date <= ?", toDate)
	}
	var saleReturns []*SaleReturn
	if err := dbCtx.Order("return_date").Find(&saleReturns).Error; err != nil {
		return nil, err
	}
	return saleReturns, nil
}

func DeleteSaleReturn(ctx context.Context, id int) (*SaleReturn, error) {
	db := config.GetDB()

	saleReturn, err := utils.FetchModel[SaleReturn](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(saleReturn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustProductStock(ctx, tx, saleReturn.ProductName, saleReturn.Quantity.Neg()); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return saleReturn, nil
}
