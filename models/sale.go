package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

type Sale struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ProductName      string          `gorm:"size:255;not null" json:"product_name" binding:"required"`
	Category         string          `gorm:"size:100" json:"category"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_balance"`
	PaymentStatus    PaymentStatus   `gorm:"type:enum('PAID','PARTIAL','UNPAID','OVERDUE');not null;default:'UNPAID'" json:"payment_status"`
	CustomerName     string          `gorm:"size:100" json:"customer_name"`
	PaymentMethod    string          `gorm:"size:50" json:"payment_method"`
	DueDate          *time.Time      `json:"due_date"`
	SaleDate         time.Time       `gorm:"not null;index" json:"sale_date"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSale struct {
	ProductName     string          `json:"product_name" binding:"required"`
	Category        string          `json:"category"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	CustomerName    string          `json:"customer_name"`
	PaymentMethod   string          `json:"payment_method"`
	DueDate         *time.Time      `json:"due_date"`
	SaleDate        time.Time       `json:"sale_date" binding:"required"`
}

func (input *NewSale) validate() error {
	if input.Quantity.IsNegative() {
		return errors.New("quantity must not be negative")
	}
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("discount percent must be between 0 and 100")
	}
	if input.PaidAmount.IsNegative() {
		return errors.New("paid amount must not be negative")
	}
	return nil
}

// saleTotal is the charged total: qty x unit price less the discount.
// A caller-supplied total wins so imported records keep their stored value.
func (input *NewSale) saleTotal() decimal.Decimal {
	if !input.TotalAmount.IsZero() {
		return input.TotalAmount
	}
	gross := input.Quantity.Mul(input.UnitPrice)
	discount := gross.Mul(input.DiscountPercent).Div(decimal.NewFromInt(100))
	return gross.Sub(discount)
}

func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	total := input.saleTotal()
	sale := Sale{
		ProductName:      input.ProductName,
		Category:         input.Category,
		Quantity:         input.Quantity,
		UnitPrice:        input.UnitPrice,
		CostPrice:        input.CostPrice,
		DiscountPercent:  input.DiscountPercent,
		TotalAmount:      total,
		PaidAmount:       input.PaidAmount,
		RemainingBalance: RemainingBalance(total, input.PaidAmount),
		PaymentStatus:    DerivePaymentStatus(total, input.PaidAmount),
		CustomerName:     input.CustomerName,
		PaymentMethod:    input.PaymentMethod,
		DueDate:          input.DueDate,
		SaleDate:         input.SaleDate,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Best effort stock decrement: walk-in sales of untracked products are allowed.
	if err := adjustProductStock(ctx, tx, sale.ProductName, sale.Quantity.Neg()); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchModel[Sale](ctx, id)
}

// ListSales returns sales within [fromDate, toDate]; zero bounds are open.
func ListSales(ctx context.Context, fromDate, toDate time.Time) ([]*Sale, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Sale{})
	if !fromDate.IsZero() {
		dbCtx = dbCtx.Where("sale_date >= ?", fromDate)
	}
	if !toDate.IsZero() {
		dbCtx = dbCtx.Where("sale_date <= ?", toDate)
	}
	var sales []*Sale
	if err := dbCtx.Order("sale_date").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func UpdateSale(ctx context.Context, id int, input *NewSale) (*Sale, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}

	prevProductName := sale.ProductName
	prevQuantity := sale.Quantity

	total := input.saleTotal()
	sale.ProductName = input.ProductName
	sale.Category = input.Category
	sale.Quantity = input.Quantity
	sale.UnitPrice = input.UnitPrice
	sale.CostPrice = input.CostPrice
	sale.DiscountPercent = input.DiscountPercent
	sale.TotalAmount = total
	sale.PaidAmount = input.PaidAmount
	sale.RemainingBalance = RemainingBalance(total, input.PaidAmount)
	sale.PaymentStatus = DerivePaymentStatus(total, input.PaidAmount)
	sale.CustomerName = input.CustomerName
	sale.PaymentMethod = input.PaymentMethod
	sale.DueDate = input.DueDate
	sale.SaleDate = input.SaleDate

	tx := db.Begin()
	if err := tx.WithContext(ctx).Save(sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// Return the old units before booking the new ones; the product may differ.
	if err := adjustProductStock(ctx, tx, prevProductName, prevQuantity); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustProductStock(ctx, tx, sale.ProductName, sale.Quantity.Neg()); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func DeleteSale(ctx context.Context, id int) (*Sale, error) {
	db := config.GetDB()

	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[SaleReturn](ctx, "sale_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("return associated with sale exists")
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustProductStock(ctx, tx, sale.ProductName, sale.Quantity); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// RecordSalePayment adds a payment to a sale and re-derives balance and status.
func RecordSalePayment(ctx context.Context, id int, amount decimal.Decimal) (*Sale, error) {
	db := config.GetDB()

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("payment amount must be positive")
	}

	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.PaymentStatus == PaymentStatusPaid {
		return nil, errors.New("sale is already fully paid")
	}
	if amount.GreaterThan(sale.RemainingBalance) {
		return nil, errors.New("payment exceeds remaining balance")
	}

	sale.PaidAmount = sale.PaidAmount.Add(amount)
	sale.RemainingBalance = RemainingBalance(sale.TotalAmount, sale.PaidAmount)
	sale.PaymentStatus = DerivePaymentStatus(sale.TotalAmount, sale.PaidAmount)

	if err := db.WithContext(ctx).Save(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}
