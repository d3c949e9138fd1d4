package entity

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Phone    string `gorm:"uniqueIndex;not null" json:"phone"`
	Email    string `gorm:"index" json:"email"`
	Password string `json:"-"`
	FullName string `json:"fullName"`
	Role     Role   `gorm:"type:varchar(20);not null;default:citizen" json:"role"`

	// Zone de responsabilité / home area
	Commune  string `gorm:"index" json:"commune"`
	Quartier string `json:"quartier"`

	// Gamification. Points only move through atomic increments, never
	// read-modify-write (concurrent credits on two reports are possible).
	Points             int  `gorm:"default:0" json:"points"`
	SubscriptionActive bool `gorm:"default:false" json:"subscriptionActive"`
	IsActive           bool `gorm:"default:true" json:"isActive"`

	// Relations, preload only when needed
	Reports         []Report       `gorm:"foreignKey:UserID" json:"-"`
	AssignedReports []Report       `gorm:"foreignKey:CollectorID" json:"-"`
	Subscriptions   []Subscription `json:"-"`
}
