package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

type PointCreditRepository struct {
	DB *gorm.DB
}

func NewPointCreditRepository(db *gorm.DB) *PointCreditRepository {
	return &PointCreditRepository{DB: db}
}

// Insert writes one ledger row. Returns false when this (report, component)
// pair was already credited; the conflict is swallowed on purpose.
func (r *PointCreditRepository) Insert(tx *gorm.DB, pc *entity.PointCredit) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(pc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PointCreditRepository) ListForReport(reportID uint) ([]entity.PointCredit, error) {
	var out []entity.PointCredit
	err := r.DB.Where("report_id = ?", reportID).Find(&out).Error
	return out, err
}

func (r *PointCreditRepository) SumForUser(userID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&entity.PointCredit{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}
