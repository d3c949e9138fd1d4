package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

type SubscriptionRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) Create(tx *gorm.DB, sub *entity.Subscription) error {
	return tx.Create(sub).Error
}

func (r *SubscriptionRepository) ListForUser(userID uint) ([]entity.Subscription, error) {
	var out []entity.Subscription
	err := r.DB.Where("user_id = ?", userID).Order("end_date DESC").Find(&out).Error
	return out, err
}

// HasValid reports whether the user holds a subscription that is active
// and not yet expired at the given instant.
func (r *SubscriptionRepository) HasValid(userID uint, now time.Time) (bool, error) {
	var count int64
	err := r.DB.Model(&entity.Subscription{}).
		Where("user_id = ? AND is_active = ? AND end_date > ?", userID, true, now).
		Count(&count).Error
	return count > 0, err
}
