package services

import (
	"time"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

// DashboardStats is the admin overview block.
type DashboardStats struct {
	TotalReports         int64   `json:"totalReports"`
	Pending              int64   `json:"pending"`
	Assigned             int64   `json:"assigned"`
	InProgress           int64   `json:"inProgress"`
	AwaitingConfirmation int64   `json:"awaitingConfirmation"`
	Completed            int64   `json:"completed"`
	Disputed             int64   `json:"disputed"`
	ReportsLast7Days     int64   `json:"reportsLast7Days"`
	TotalWeightKg        float64 `json:"totalWeightKg"`
	WeighedReports       int64   `json:"weighedReports"`
	Citizens             int64   `json:"citizens"`
	Collectors           int64   `json:"collectors"`
}

func (s *ReportService) Dashboard(actor Actor) (*DashboardStats, error) {
	if !actor.Role.SupervisorTier() {
		return nil, apperr.New(apperr.PermissionDenied, "supervisors and above only")
	}

	out := &DashboardStats{}
	var err error
	if out.TotalReports, err = s.Repo.CountAll(); err != nil {
		return nil, err
	}
	byStatus := []struct {
		status entity.ReportStatus
		dst    *int64
	}{
		{entity.StatusPending, &out.Pending},
		{entity.StatusAssigned, &out.Assigned},
		{entity.StatusInProgress, &out.InProgress},
		{entity.StatusAwaitingConfirmation, &out.AwaitingConfirmation},
		{entity.StatusCompleted, &out.Completed},
		{entity.StatusDisputed, &out.Disputed},
	}
	for _, row := range byStatus {
		if *row.dst, err = s.Repo.CountByStatus(row.status); err != nil {
			return nil, err
		}
	}
	if out.ReportsLast7Days, err = s.Repo.CountSince(s.now().AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if out.TotalWeightKg, err = s.Repo.TotalWeight(); err != nil {
		return nil, err
	}
	if out.WeighedReports, err = s.Repo.CountWithWeight(); err != nil {
		return nil, err
	}
	if out.Citizens, err = s.Users.CountByRole(entity.RoleCitizen); err != nil {
		return nil, err
	}
	if out.Collectors, err = s.Users.CountByRole(entity.RoleCollector); err != nil {
		return nil, err
	}
	return out, nil
}

// CommuneStats returns per-commune aggregates. Supervisors only see their
// own commune; coordinators and admins see all, or one when they ask.
func (s *ReportService) CommuneStats(actor Actor, commune string) ([]repository.CommuneStat, error) {
	if !actor.Role.SupervisorTier() {
		return nil, apperr.New(apperr.PermissionDenied, "supervisors and above only")
	}
	if !actor.Role.BypassesGeography() {
		if actor.Commune == "" {
			return []repository.CommuneStat{}, nil
		}
		commune = actor.Commune
	}
	return s.Repo.StatsByCommune(commune)
}

// Leaderboards bundles the two public rankings.
type Leaderboards struct {
	TopCitizens   []repository.TopCitizen   `json:"topCitizens"`
	TopCollectors []repository.TopCollector `json:"topCollectors"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}

func (s *ReportService) GetLeaderboards(limit int) (*Leaderboards, error) {
	citizens, err := s.Users.TopCitizens(limit)
	if err != nil {
		return nil, err
	}
	collectors, err := s.Repo.TopCollectors(limit)
	if err != nil {
		return nil, err
	}
	return &Leaderboards{
		TopCitizens:   citizens,
		TopCollectors: collectors,
		GeneratedAt:   s.now(),
	}, nil
}
