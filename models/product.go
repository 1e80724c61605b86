package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultReorderLevel applies when a product has no explicit reorder level.
const DefaultReorderLevel = 5

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null;uniqueIndex" json:"name" binding:"required"`
	Category      string          `gorm:"size:100" json:"category"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_quantity"`
	ReorderLevel  int             `gorm:"default:5" json:"reorder_level"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	SupplierId    int             `json:"supplier_id"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	ReorderLevel  int             `json:"reorder_level"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SupplierId    int             `json:"supplier_id"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.ReorderLevel < 0 {
		return errors.New("reorder level must not be negative")
	}
	if input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
			return errors.New("supplier not found")
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	reorderLevel := input.ReorderLevel
	if reorderLevel == 0 {
		reorderLevel = DefaultReorderLevel
	}
	product := Product{
		Name:          input.Name,
		Category:      input.Category,
		StockQuantity: input.StockQuantity,
		ReorderLevel:  reorderLevel,
		UnitPrice:     input.UnitPrice,
		CostPrice:     input.CostPrice,
		SupplierId:    input.SupplierId,
		IsActive:      utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, errors.New("duplicate name")
		}
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func ListProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()
	var products []*Product
	if err := db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Category = input.Category
	product.StockQuantity = input.StockQuantity
	if input.ReorderLevel > 0 {
		product.ReorderLevel = input.ReorderLevel
	}
	product.UnitPrice = input.UnitPrice
	product.CostPrice = input.CostPrice
	product.SupplierId = input.SupplierId

	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// adjustProductStock shifts stock by delta (negative for a sale, positive for
// a return) inside the caller's transaction. Unknown product names are a
// no-op: sales of untracked items are allowed.
func adjustProductStock(ctx context.Context, tx *gorm.DB, productName string, delta decimal.Decimal) error {
	if productName == "" || delta.IsZero() {
		return nil
	}
	var product Product
	err := tx.WithContext(ctx).Where("name = ?", productName).Take(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.WithContext(ctx).Model(&product).
		Update("stock_quantity", product.StockQuantity.Add(delta)).Error
}
