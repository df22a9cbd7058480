package models

import "gorm.io/gorm"

// CartItem is a line in a user's cart. The cart itself is written by the
// storefront; the core only reads it for checkout snapshots and clears it
// after a successful payment.
type CartItem struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      string `json:"user_id" gorm:"type:varchar(64);index" validate:"required"`
	ProductName string `json:"product_name" validate:"required"`
	UMKMName    string `json:"umkm_name,omitempty" gorm:"column:umkm_name"`
	Price       int64  `json:"price" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	gorm.Model  `json:"-"`
}
