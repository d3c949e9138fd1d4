package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

// ---------------- CRUD ----------------

func (r *ReportRepository) Create(tx *gorm.DB, report *entity.Report) error {
	return tx.Create(report).Error
}

func (r *ReportRepository) Get(id uint) (*entity.Report, error) {
	var report entity.Report
	if err := r.DB.First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// GetWithUsers preloads the reporter and the assigned collector; both are
// needed for permission and geography checks.
func (r *ReportRepository) GetWithUsers(id uint) (*entity.Report, error) {
	var report entity.Report
	if err := r.DB.Preload("User").Preload("Collector").First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) Delete(tx *gorm.DB, id uint) error {
	return tx.Delete(&entity.Report{}, id).Error
}

// ---------------- State machine guards ----------------

// UpdateStatusGuard moves a report from one status to another with a
// compare-and-swap on the current status, applying extra field writes in
// the same UPDATE. False means the report moved on under us.
func (r *ReportRepository) UpdateStatusGuard(tx *gorm.DB, reportID uint, from, to entity.ReportStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&entity.Report{}).
		Where("id = ? AND status = ?", reportID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetWeightOnce records the verified weight only when none exists yet.
// The NULL guard in the WHERE keeps two racing agents from both writing.
func (r *ReportRepository) SetWeightOnce(tx *gorm.DB, reportID uint, weightKg float64, verifiedBy uint, at time.Time) (bool, error) {
	res := tx.Model(&entity.Report{}).
		Where("id = ? AND weight_kg IS NULL", reportID).
		Updates(map[string]any{
			"weight_kg":          weightKg,
			"weight_verified_at": at,
			"weight_verified_by": verifiedBy,
			"last_action":        "weight_recorded",
			"last_action_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ReportRepository) UpdateFields(tx *gorm.DB, reportID uint, updates map[string]any) error {
	return tx.Model(&entity.Report{}).Where("id = ?", reportID).Updates(updates).Error
}

func (r *ReportRepository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.DB.Model(&entity.Report{}).Where("confirmation_code = ?", code).Count(&count).Error
	return count > 0, err
}

// ---------------- Scans ----------------

func (r *ReportRepository) ListForUser(userID uint, limit, offset int) ([]entity.Report, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var out []entity.Report
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// ListByStatusScoped lists reports in a status, restricted to the owning
// citizen's commune when commune is non-empty.
func (r *ReportRepository) ListByStatusScoped(status entity.ReportStatus, commune string, limit, offset int) ([]entity.Report, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	q := r.DB.Model(&entity.Report{}).Preload("User").
		Joins("JOIN users u ON u.id = reports.user_id").
		Where("reports.status = ?", status)
	if commune != "" {
		q = q.Where("LOWER(u.commune) = LOWER(?)", commune)
	}
	order := "reports.created_at DESC"
	if status == entity.StatusAwaitingConfirmation {
		order = "reports.confirmation_deadline ASC" // most urgent first
	}
	var out []entity.Report
	err := q.Order(order).Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

// ListRecentScoped lists reports created in the last N days, commune- or
// user-scoped depending on caller role.
func (r *ReportRepository) ListRecentScoped(since time.Time, commune string, userID uint, limit, offset int) ([]entity.Report, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	q := r.DB.Model(&entity.Report{}).Preload("User").
		Where("reports.created_at >= ?", since)
	if userID != 0 {
		q = q.Where("reports.user_id = ?", userID)
	}
	if commune != "" {
		q = q.Joins("JOIN users u ON u.id = reports.user_id").
			Where("LOWER(u.commune) = LOWER(?)", commune)
	}
	var out []entity.Report
	err := q.Order("reports.created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

// ListExpiredAwaiting returns the sweep's work list: awaiting confirmation,
// past deadline, and not yet confirmed by anyone.
func (r *ReportRepository) ListExpiredAwaiting(now time.Time) ([]entity.Report, error) {
	var out []entity.Report
	err := r.DB.
		Where("status = ?", entity.StatusAwaitingConfirmation).
		Where("confirmation_deadline < ?", now).
		Where("citizen_confirmed = ? AND auto_confirmed = ?", false, false).
		Find(&out).Error
	return out, err
}

func (r *ReportRepository) ListAllWithUsers() ([]entity.Report, error) {
	var out []entity.Report
	err := r.DB.Preload("User").Preload("Collector").Order("created_at DESC").Find(&out).Error
	return out, err
}

// ---------------- Aggregates ----------------

func (r *ReportRepository) CountByStatus(status entity.ReportStatus) (int64, error) {
	var count int64
	err := r.DB.Model(&entity.Report{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *ReportRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&entity.Report{}).Count(&count).Error
	return count, err
}

func (r *ReportRepository) CountSince(t time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&entity.Report{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

func (r *ReportRepository) TotalWeight() (float64, error) {
	var total float64
	err := r.DB.Model(&entity.Report{}).
		Select("COALESCE(SUM(weight_kg), 0)").Scan(&total).Error
	return total, err
}

func (r *ReportRepository) CountWithWeight() (int64, error) {
	var count int64
	err := r.DB.Model(&entity.Report{}).Where("weight_kg IS NOT NULL").Count(&count).Error
	return count, err
}

type CommuneStat struct {
	Commune       string  `json:"commune"`
	Total         int64   `json:"total"`
	Completed     int64   `json:"completed"`
	Disputed      int64   `json:"disputed"`
	TotalWeightKg float64 `json:"totalWeightKg"`
}

func (r *ReportRepository) StatsByCommune(commune string) ([]CommuneStat, error) {
	q := r.DB.Table("reports AS rp").
		Select(`u.commune,
			COUNT(rp.id) AS total,
			SUM(CASE WHEN rp.status = 'COMPLETED' THEN 1 ELSE 0 END) AS completed,
			SUM(CASE WHEN rp.status = 'DISPUTED' THEN 1 ELSE 0 END) AS disputed,
			COALESCE(SUM(rp.weight_kg), 0) AS total_weight_kg`).
		Joins("JOIN users u ON u.id = rp.user_id").
		Where("rp.deleted_at IS NULL").
		Group("u.commune").
		Order("total DESC")
	if commune != "" {
		q = q.Where("LOWER(u.commune) = LOWER(?)", commune)
	}
	var out []CommuneStat
	err := q.Scan(&out).Error
	return out, err
}

type TopCollector struct {
	FullName         string  `json:"fullName"`
	CompletedReports int64   `json:"completedReports"`
	TotalWeightKg    float64 `json:"totalWeightKg"`
}

func (r *ReportRepository) TopCollectors(limit int) ([]TopCollector, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []TopCollector
	err := r.DB.Table("reports AS rp").
		Select(`u.full_name,
			COUNT(rp.id) AS completed_reports,
			COALESCE(SUM(rp.weight_kg), 0) AS total_weight_kg`).
		Joins("JOIN users u ON u.id = rp.collector_id").
		Where("rp.status = ? AND rp.deleted_at IS NULL", entity.StatusCompleted).
		Group("u.id, u.full_name").
		Order("completed_reports DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
