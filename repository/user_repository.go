package repository

import (
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(u *entity.User) error {
	return r.DB.Create(u).Error
}

func (r *UserRepository) FindByID(id uint) (*entity.User, error) {
	var u entity.User
	if err := r.DB.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByPhone(phone string) (*entity.User, error) {
	var u entity.User
	if err := r.DB.Where("phone = ?", phone).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) CountByPhone(phone string) (int64, error) {
	var count int64
	err := r.DB.Model(&entity.User{}).Where("phone = ?", phone).Count(&count).Error
	return count, err
}

func (r *UserRepository) Update(id uint, updates map[string]any) error {
	return r.DB.Model(&entity.User{}).Where("id = ?", id).Updates(updates).Error
}

// AddPoints applies the delta as a single SQL increment. Concurrent credits
// for the same citizen (weight on one report, confirmation on another) must
// never go through read-then-write.
func (r *UserRepository) AddPoints(tx *gorm.DB, userID uint, delta int) error {
	return tx.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}

// ListSubscribedCitizens feeds the monthly subscription-points cron.
func (r *UserRepository) ListSubscribedCitizens() ([]entity.User, error) {
	var users []entity.User
	err := r.DB.
		Where("subscription_active = ? AND role = ?", true, entity.RoleCitizen).
		Find(&users).Error
	return users, err
}

type TopCitizen struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Commune  string `json:"commune"`
	Points   int    `json:"points"`
}

func (r *UserRepository) TopCitizens(limit int) ([]TopCitizen, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []TopCitizen
	err := r.DB.Model(&entity.User{}).
		Select("id, full_name, commune, points").
		Where("role = ?", entity.RoleCitizen).
		Order("points DESC").Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *UserRepository) CountByRole(role entity.Role) (int64, error) {
	var count int64
	err := r.DB.Model(&entity.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
