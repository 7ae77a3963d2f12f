package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart stages a future order for exactly one user. It is created lazily on
// first access and emptied after checkout.
type Cart struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User  User       `gorm:"foreignKey:UserID" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Subtotal is derived from the live variant prices, never stored. Items
// must be loaded with their variants.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].LineTotal())
	}
	return subtotal
}

func (c *Cart) ItemCount() int {
	return len(c.Items)
}

// CartItem is one line inside a cart. The (cart, variant) pair is unique:
// re-adding a variant increments the quantity of the existing row.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant" json:"cart_id"`
	VariantID uint      `gorm:"not null;uniqueIndex:idx_cart_variant" json:"variant_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Cart    Cart           `gorm:"foreignKey:CartID" json:"-"`
	Variant ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal reflects the live variant price. The cart has not committed
// yet, so prices are not snapshotted here.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Variant.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
