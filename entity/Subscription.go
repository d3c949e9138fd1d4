package entity

import (
	"time"

	"gorm.io/gorm"
)

// Subscription is a paid monthly pickup subscription. A currently valid row
// is what entitles a citizen to the monthly subscription points.
type Subscription struct {
	gorm.Model
	UserID uint `gorm:"index;not null" json:"userId"`
	User   User `json:"-"`

	Amount        int    `gorm:"default:100" json:"amount"`
	PaymentMethod string `gorm:"default:mobile_money" json:"paymentMethod"` // Orange Money, M-Pesa...

	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
}
