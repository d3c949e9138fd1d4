package entity

import (
	"time"

	"gorm.io/gorm"
)

type Report struct {
	gorm.Model

	// GPS is mandatory; the address text is a human hint ("devant l'église").
	Latitude           float64 `gorm:"not null" json:"latitude"`
	Longitude          float64 `gorm:"not null" json:"longitude"`
	AddressDescription string  `json:"addressDescription"`

	Description string `json:"description"`
	ImageURL    string `gorm:"not null" json:"imageUrl"`

	// Scoring inputs. WeightKg is written at most once.
	WeightKg                *float64   `json:"weightKg"`
	WeightVerifiedAt        *time.Time `json:"weightVerifiedAt"`
	WeightVerifiedBy        *uint      `json:"weightVerifiedBy"`
	DescriptionQualityScore *int       `json:"descriptionQualityScore"`

	Status ReportStatus `gorm:"type:varchar(32);default:PENDING;index" json:"status"`

	// Cleanup confirmation flow
	CleanupPhotoURL         *string    `json:"cleanupPhotoUrl"`
	CleanupPhotoSubmittedAt *time.Time `json:"cleanupPhotoSubmittedAt"`
	ConfirmationCode        *string    `gorm:"uniqueIndex;size:8" json:"confirmationCode,omitempty"`
	ConfirmationDeadline    *time.Time `gorm:"index" json:"confirmationDeadline"`
	CitizenConfirmed        bool       `gorm:"default:false" json:"citizenConfirmed"`
	CitizenConfirmedAt      *time.Time `json:"citizenConfirmedAt"`
	AutoConfirmed           bool       `gorm:"default:false" json:"autoConfirmed"`
	DisputeReason           *string    `json:"disputeReason,omitempty"`

	// Audit trail of the most recent transition
	LastAction   string     `gorm:"size:50" json:"lastAction"`
	LastActionAt *time.Time `json:"lastActionAt"`

	// Set exactly once, at the transition into COMPLETED.
	ResolvedAt *time.Time `json:"resolvedAt"`

	UserID uint `gorm:"not null;index" json:"userId"`
	User   User `json:"-"`

	CollectorID *uint `json:"collectorId"`
	Collector   *User `gorm:"foreignKey:CollectorID" json:"-"`
}
