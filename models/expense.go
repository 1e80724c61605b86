package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Category        string          `gorm:"size:100;not null" json:"category" binding:"required"`
	Description     string          `gorm:"type:text" json:"description"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaymentMethod   string          `gorm:"size:50" json:"payment_method"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	ExpenseDate     time.Time       `gorm:"not null;index" json:"expense_date"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExpense struct {
	Category        string          `json:"category" binding:"required"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number"`
	ExpenseDate     time.Time       `json:"expense_date" binding:"required"`
}

func (input *NewExpense) validate() error {
	if input.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	return nil
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	expense := Expense{
		Category:        input.Category,
		Description:     input.Description,
		Amount:          input.Amount,
		PaymentMethod:   input.PaymentMethod,
		ReferenceNumber: input.ReferenceNumber,
		ExpenseDate:     input.ExpenseDate,
	}

	if err := db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	return utils.FetchModel[Expense](ctx, id)
}

// ListExpenses returns expenses within [fromDate, toDate]; zero bounds are open.
func ListExpenses(ctx context.Context, fromDate, toDate time.Time) ([]*Expense, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Expense{})
	if !fromDate.IsZero() {
		dbCtx = dbCtx.Where("expense_date >= ?", fromDate)
	}
	if !toDate.IsZero() {
		dbCtx = dbCtx.Where("expense_date <= ?", toDate)
	}
	var expenses []*Expense
	if err := dbCtx.Order("expense_date").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func UpdateExpense(ctx context.Context, id int, input *NewExpense) (*Expense, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}

	expense.Category = input.Category
	expense.Description = input.Description
	expense.Amount = input.Amount
	expense.PaymentMethod = input.PaymentMethod
	expense.ReferenceNumber = input.ReferenceNumber
	expense.ExpenseDate = input.ExpenseDate

	if err := db.WithContext(ctx).Save(expense).Error; err != nil {
		return nil, err
	}
	return expense, nil
}

func DeleteExpense(ctx context.Context, id int) (*Expense, error) {
	db := config.GetDB()

	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(expense).Error; err != nil {
		return nil, err
	}
	return expense, nil
}
