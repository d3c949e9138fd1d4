package services

import (
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/lock"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/storage"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

// Actor is the authenticated principal handed in by the auth middleware.
// A zero ID means an anonymous caller (confirmation-by-code links).
type Actor struct {
	ID      uint
	Role    entity.Role
	Commune string
}

// ReportNotifier receives lifecycle events for live agent dashboards.
type ReportNotifier interface {
	NotifyReport(event string, report *entity.Report)
}

type ReportService struct {
	DB      *gorm.DB
	Repo    *repository.ReportRepository
	Users   *repository.UserRepository
	Credits *repository.PointCreditRepository
	Scoring *ScoringService
	Photos  storage.PhotoStorage
	Log     *zap.Logger

	// optional
	Notifier ReportNotifier

	sweepLock *lock.JobLock
	now       func() time.Time
}

func NewReportService(
	db *gorm.DB,
	repo *repository.ReportRepository,
	users *repository.UserRepository,
	credits *repository.PointCreditRepository,
	scoring *ScoringService,
	photos storage.PhotoStorage,
	logger *zap.Logger,
	sweepLock *lock.JobLock,
) *ReportService {
	return &ReportService{
		DB:        db,
		Repo:      repo,
		Users:     users,
		Credits:   credits,
		Scoring:   scoring,
		Photos:    photos,
		Log:       logger,
		sweepLock: sweepLock,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ----- Create -----

type CreateReportIn struct {
	Latitude           float64
	Longitude          float64
	Description        string
	AddressDescription string
	Photo              io.Reader
	PhotoName          string
}

func (s *ReportService) Create(actor Actor, in *CreateReportIn) (*entity.Report, error) {
	if actor.Role != entity.RoleCitizen {
		return nil, apperr.New(apperr.PermissionDenied, "only citizens can file reports")
	}
	if in.Photo == nil {
		return nil, apperr.New(apperr.Validation, "a photo of the waste is required")
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, apperr.New(apperr.Validation, "coordinates out of range")
	}

	imageURL, err := s.Photos.Save(in.Photo, in.PhotoName, "reports")
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &entity.Report{
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		AddressDescription: strings.TrimSpace(in.AddressDescription),
		Description:        strings.TrimSpace(in.Description),
		ImageURL:           imageURL,
		Status:             entity.StatusPending,
		UserID:             actor.ID,
		LastAction:         "created",
		LastActionAt:       &now,
	}
	if report.Description != "" {
		score := s.Scoring.ScoreDescription(report.Description)
		report.DescriptionQualityScore = &score
	}

	if err := s.Repo.Create(s.DB, report); err != nil {
		return nil, err
	}

	s.Log.Info("report created",
		zap.Uint("reportId", report.ID),
		zap.Uint("userId", actor.ID),
		zap.Intp("descriptionScore", report.DescriptionQualityScore))
	return report, nil
}

// ----- Reads -----

// Detail applies the viewing hierarchy: citizens see their own reports,
// collectors and supervisors their commune, coordinators and admins all.
func (s *ReportService) Detail(actor Actor, reportID uint) (*entity.Report, error) {
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == entity.RoleCitizen:
		if report.UserID != actor.ID {
			return nil, apperr.New(apperr.PermissionDenied, "you cannot view this report")
		}
	case actor.Role == entity.RoleCollector || actor.Role == entity.RoleSupervisor:
		if !s.inScope(actor, &report.User) {
			return nil, apperr.New(apperr.PermissionDenied, "report outside your commune")
		}
	}
	return report, nil
}

func (s *ReportService) ListMine(actor Actor, limit, offset int) ([]entity.Report, error) {
	return s.Repo.ListForUser(actor.ID, limit, offset)
}

// ListByStatus serves the supervisor queues (awaiting confirmation,
// disputed). Non-privileged agents are scoped to their commune.
func (s *ReportService) ListByStatus(actor Actor, status entity.ReportStatus, limit, offset int) ([]entity.Report, error) {
	if !actor.Role.IsAgent() {
		return nil, apperr.New(apperr.PermissionDenied, "agents only")
	}
	commune := ""
	if !actor.Role.BypassesGeography() {
		if actor.Commune == "" {
			return []entity.Report{}, nil
		}
		commune = actor.Commune
	}
	return s.Repo.ListByStatusScoped(status, commune, limit, offset)
}

func (s *ReportService) History(actor Actor, days, limit, offset int) ([]entity.Report, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	switch {
	case actor.Role == entity.RoleCitizen:
		return s.Repo.ListRecentScoped(since, "", actor.ID, limit, offset)
	case actor.Role.BypassesGeography():
		return s.Repo.ListRecentScoped(since, "", 0, limit, offset)
	case actor.Role.IsAgent():
		if actor.Commune == "" {
			return []entity.Report{}, nil
		}
		return s.Repo.ListRecentScoped(since, actor.Commune, 0, limit, offset)
	default:
		return nil, apperr.New(apperr.PermissionDenied, "unknown role")
	}
}

// CleanupStatus is the public confirmation view for a report, including the
// points the citizen stands to gain.
type CleanupStatus struct {
	ReportID             uint                `json:"reportId"`
	Status               entity.ReportStatus `json:"status"`
	HasCleanupPhoto      bool                `json:"hasCleanupPhoto"`
	CleanupPhotoURL      *string             `json:"cleanupPhotoUrl"`
	PhotoSubmittedAt     *time.Time          `json:"photoSubmittedAt"`
	CitizenConfirmed     bool                `json:"citizenConfirmed"`
	CitizenConfirmedAt   *time.Time          `json:"citizenConfirmedAt"`
	ConfirmationDeadline *time.Time          `json:"confirmationDeadline"`
	AwaitingConfirmation bool                `json:"awaitingConfirmation"`
	CanConfirm           bool                `json:"canConfirm"`
	ConfirmationCode     *string             `json:"confirmationCode,omitempty"`
	WeightKg             *float64            `json:"weightKg"`
	DescriptionScore     *int                `json:"descriptionQualityScore"`
	PointsEstimated      int                 `json:"pointsEstimated"`
	DisputeReason        *string             `json:"disputeReason,omitempty"`
}

func (s *ReportService) GetCleanupStatus(actor Actor, reportID uint) (*CleanupStatus, error) {
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}

	awaiting := report.Status == entity.StatusAwaitingConfirmation
	canConfirm := false
	if actor.ID != 0 {
		if report.UserID == actor.ID {
			canConfirm = awaiting && !report.CitizenConfirmed
		} else if actor.Role.SupervisorTier() {
			canConfirm = awaiting
		}
	}

	out := &CleanupStatus{
		ReportID:             report.ID,
		Status:               report.Status,
		HasCleanupPhoto:      report.CleanupPhotoURL != nil,
		CleanupPhotoURL:      report.CleanupPhotoURL,
		PhotoSubmittedAt:     report.CleanupPhotoSubmittedAt,
		CitizenConfirmed:     report.CitizenConfirmed,
		CitizenConfirmedAt:   report.CitizenConfirmedAt,
		ConfirmationDeadline: report.ConfirmationDeadline,
		AwaitingConfirmation: awaiting,
		CanConfirm:           canConfirm,
		WeightKg:             report.WeightKg,
		DescriptionScore:     report.DescriptionQualityScore,
		PointsEstimated:      s.Scoring.PointsForReport(report).Total,
		DisputeReason:        report.DisputeReason,
	}
	// The code is only exposed while a confirmation is still possible.
	if awaiting && report.ConfirmationCode != nil && !report.CitizenConfirmed {
		out.ConfirmationCode = report.ConfirmationCode
	}
	return out, nil
}

// ----- Delete -----

// DeleteByCitizen removes a report that has not been picked up yet. Only
// the owner may do it, and only while PENDING.
func (s *ReportService) DeleteByCitizen(actor Actor, reportID uint) error {
	if actor.Role != entity.RoleCitizen {
		return apperr.New(apperr.PermissionDenied, "only citizens can delete their own reports")
	}
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return err
	}
	if report.UserID != actor.ID {
		return apperr.New(apperr.PermissionDenied, "you can only delete your own reports")
	}
	if report.Status != entity.StatusPending {
		return apperr.New(apperr.InvalidState, "only pending reports can be deleted")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Repo.Delete(tx, report.ID)
	})
}

// ----- helpers -----

func (s *ReportService) loadWithUsers(id uint) (*entity.Report, error) {
	report, err := s.Repo.GetWithUsers(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "report not found")
		}
		return nil, err
	}
	return report, nil
}

// inScope checks commune overlap for non-privileged agents. When either
// side has no commune on file the check is skipped, matching how field
// agents without an assigned zone were historically handled.
func (s *ReportService) inScope(actor Actor, owner *entity.User) bool {
	if actor.Role.BypassesGeography() {
		return true
	}
	if actor.Commune == "" || owner.Commune == "" {
		return true
	}
	return strings.EqualFold(actor.Commune, owner.Commune)
}

// ensureDescriptionScore backfills the stored score for rows created before
// descriptions were scored at submission time.
func (s *ReportService) ensureDescriptionScore(tx *gorm.DB, report *entity.Report) error {
	if report.DescriptionQualityScore != nil {
		return nil
	}
	score := 0
	if report.Description != "" {
		score = s.Scoring.ScoreDescription(report.Description)
	}
	report.DescriptionQualityScore = &score
	return s.Repo.UpdateFields(tx, report.ID, map[string]any{
		"description_quality_score": score,
	})
}

// creditPoints writes one ledger row per component and applies the sum as a
// single atomic increment. Components already credited for this report are
// skipped, which is what keeps weight-then-confirm from paying twice.
func (s *ReportService) creditPoints(tx *gorm.DB, report *entity.Report, breakdown PointsBreakdown) (PointsBreakdown, error) {
	applied := PointsBreakdown{Details: map[string]int{}}
	for component, pts := range breakdown.Details {
		if pts <= 0 {
			continue
		}
		inserted, err := s.Credits.Insert(tx, &entity.PointCredit{
			ReportID:  report.ID,
			Component: component,
			UserID:    report.UserID,
			Points:    pts,
		})
		if err != nil {
			return applied, err
		}
		if !inserted {
			continue
		}
		applied.Details[component] = pts
		applied.Total += pts
	}
	if applied.Total > 0 {
		if err := s.Users.AddPoints(tx, report.UserID, applied.Total); err != nil {
			return applied, err
		}
		s.Log.Info("points credited",
			zap.Uint("reportId", report.ID),
			zap.Uint("userId", report.UserID),
			zap.Int("points", applied.Total),
			zap.Any("details", applied.Details))
	}
	return applied, nil
}

func (s *ReportService) notify(event string, report *entity.Report) {
	if s.Notifier != nil {
		s.Notifier.NotifyReport(event, report)
	}
}
