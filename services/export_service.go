package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

// ExportService builds the admin xlsx export of every report.
type ExportService struct {
	Reports *repository.ReportRepository
}

func NewExportService(reports *repository.ReportRepository) *ExportService {
	return &ExportService{Reports: reports}
}

var exportHeaders = []string{
	"ID", "Statut", "Citoyen", "Commune", "Ramasseur",
	"Description", "Score description", "Poids (kg)",
	"Confirmé", "Auto-confirmé", "Créé le", "Résolu le",
}

// ReportsWorkbook renders all reports into an xlsx workbook. The caller
// streams the file and must Close it.
func (s *ExportService) ReportsWorkbook(actor Actor) (*excelize.File, error) {
	if !actor.Role.SupervisorTier() {
		return nil, apperr.New(apperr.PermissionDenied, "supervisors and above only")
	}

	reports, err := s.Reports.ListAllWithUsers()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Signalements"
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i := range reports {
		if err := writeReportRow(f, sheet, i+2, &reports[i]); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeReportRow(f *excelize.File, sheet string, row int, r *entity.Report) error {
	collector := ""
	if r.Collector != nil {
		collector = r.Collector.FullName
	}
	values := []any{
		r.ID,
		string(r.Status),
		r.User.FullName,
		r.User.Commune,
		collector,
		r.Description,
		intOrEmpty(r.DescriptionQualityScore),
		floatOrEmpty(r.WeightKg),
		yesNo(r.CitizenConfirmed),
		yesNo(r.AutoConfirmed),
		r.CreatedAt.Format(time.RFC3339),
		timeOrEmpty(r.ResolvedAt),
	}
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func intOrEmpty(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func floatOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}
