package entity

import (
	"gorm.io/gorm"
)

// PointCredit is the ledger of everything ever credited to a citizen for a
// report. One row per (report, component); the unique index is what keeps
// point awards idempotent when the same report is scored more than once
// (e.g. weight recorded first, citizen confirmation later).
type PointCredit struct {
	gorm.Model
	ReportID  uint   `gorm:"uniqueIndex:idx_credit_report_component;not null" json:"reportId"`
	Component string `gorm:"uniqueIndex:idx_credit_report_component;size:40;not null" json:"component"`
	UserID    uint   `gorm:"index;not null" json:"userId"`
	Points    int    `gorm:"not null" json:"points"`
}
