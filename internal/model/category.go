package model

import "time"

// Category groups inventory items.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []InventoryItem `gorm:"foreignKey:CategoryID"`
}
