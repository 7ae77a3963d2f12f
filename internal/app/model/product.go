package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `json:"image_url"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

type ProductVariant struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	ProductID     uint            `gorm:"index;not null" json:"product_id"`
	SKU           *string         `gorm:"uniqueIndex;size:100" json:"sku,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"default:0;not null" json:"stock_quantity"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Product    Product            `gorm:"foreignKey:ProductID" json:"-"`
	Attributes []VariantAttribute `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"attributes,omitempty"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// InStock reports whether any stock remains. Purchasability is decided by
// the inventory service, which also checks the active flags.
func (v *ProductVariant) InStock() bool {
	return v.StockQuantity > 0
}

// VariantAttribute is a key/value pair describing a variant (e.g. size=M).
// Keys are unique per variant.
type VariantAttribute struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	VariantID uint   `gorm:"not null;uniqueIndex:idx_variant_attr_key" json:"variant_id"`
	Key       string `gorm:"size:50;not null;uniqueIndex:idx_variant_attr_key" json:"key"`
	Value     string `gorm:"size:255;not null" json:"value"`

	Variant ProductVariant `gorm:"foreignKey:VariantID" json:"-"`
}

func (VariantAttribute) TableName() string {
	return "variant_attributes"
}
