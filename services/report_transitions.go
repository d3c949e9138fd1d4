package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/utils"
)

const (
	confirmationWindow  = 48 * time.Hour
	maxWeightKg         = 1000.0
	minDisputeReasonLen = 10
	codeRetryAttempts   = 5
)

// Assign moves a PENDING report to ASSIGNED for a given collector.
// Supervisors and above may assign; collectors may only take reports for
// themselves, which is handled by TakeReport.
func (s *ReportService) Assign(actor Actor, reportID, collectorID uint) (*entity.Report, error) {
	if !actor.Role.SupervisorTier() {
		return nil, apperr.New(apperr.PermissionDenied, "only supervisors can assign reports")
	}
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}
	if !s.inScope(actor, &report.User) {
		return nil, apperr.New(apperr.PermissionDenied, "report outside your commune")
	}

	collector, err := s.Users.FindByID(collectorID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "collector not found")
	}
	if !collector.Role.IsAgent() {
		return nil, apperr.New(apperr.Validation, "assignee is not a field agent")
	}

	now := s.now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusPending, entity.StatusAssigned, map[string]any{
			"collector_id":   collector.ID,
			"last_action":    "assigned",
			"last_action_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Newf(apperr.InvalidState, "report is no longer pending")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("report assigned",
		zap.Uint("reportId", report.ID),
		zap.Uint("collectorId", collector.ID),
		zap.Uint("byUserId", actor.ID))
	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, err
	}
	s.notify("report_assigned", report)
	return report, nil
}

// TakeReport lets a collector pull a PENDING or ASSIGNED report in their
// commune into IN_PROGRESS, claiming it in the same step when unassigned.
func (s *ReportService) TakeReport(actor Actor, reportID uint) (*entity.Report, error) {
	if !actor.Role.IsAgent() {
		return nil, apperr.New(apperr.PermissionDenied, "only field agents can work reports")
	}
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}
	if !s.inScope(actor, &report.User) {
		return nil, apperr.New(apperr.PermissionDenied, "report outside your commune")
	}
	if report.CollectorID != nil && *report.CollectorID != actor.ID && !actor.Role.SupervisorTier() {
		return nil, apperr.New(apperr.PermissionDenied, "report is assigned to another collector")
	}

	from := report.Status
	if from != entity.StatusPending && from != entity.StatusAssigned {
		return nil, apperr.Newf(apperr.InvalidState, "cannot start work from %s", from)
	}

	now := s.now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"last_action":    "work_started",
			"last_action_at": now,
		}
		if report.CollectorID == nil {
			updates["collector_id"] = actor.ID
		}
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, from, entity.StatusInProgress, updates)
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Newf(apperr.InvalidState, "report is no longer %s", from)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("work started",
		zap.Uint("reportId", report.ID),
		zap.Uint("collectorId", actor.ID))
	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, err
	}
	s.notify("report_in_progress", report)
	return report, nil
}

// SubmitCleanupPhoto uploads the after photo, issues a confirmation code and
// opens the 48 hour confirmation window.
func (s *ReportService) SubmitCleanupPhoto(actor Actor, reportID uint, photo io.Reader, photoName, notes string) (*entity.Report, error) {
	if !actor.Role.IsAgent() {
		return nil, apperr.New(apperr.PermissionDenied, "only field agents can submit cleanup photos")
	}
	if photo == nil {
		return nil, apperr.New(apperr.Validation, "a cleanup photo is required")
	}
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}
	if report.CollectorID == nil || *report.CollectorID != actor.ID {
		if !actor.Role.SupervisorTier() {
			return nil, apperr.New(apperr.PermissionDenied, "report is not assigned to you")
		}
		if !s.inScope(actor, &report.User) {
			return nil, apperr.New(apperr.PermissionDenied, "report outside your commune")
		}
	}

	from := report.Status
	if from != entity.StatusAssigned && from != entity.StatusInProgress {
		return nil, apperr.Newf(apperr.InvalidState, "cannot submit a cleanup photo from %s", from)
	}

	photoURL, err := s.Photos.Save(photo, photoName, "cleanups")
	if err != nil {
		return nil, err
	}

	code, err := s.freshConfirmationCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	deadline := now.Add(confirmationWindow)
	description := report.Description
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		if description != "" {
			description += "\n"
		}
		description += "Notes du ramasseur: " + trimmed
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, from, entity.StatusAwaitingConfirmation, map[string]any{
			"cleanup_photo_url":          photoURL,
			"cleanup_photo_submitted_at": now,
			"confirmation_code":          code,
			"confirmation_deadline":      deadline,
			"citizen_confirmed":          false,
			"auto_confirmed":             false,
			"description":                description,
			"last_action":                "photo_submitted",
			"last_action_at":             now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return apperr.Newf(apperr.InvalidState, "report is no longer %s", from)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("cleanup photo submitted",
		zap.Uint("reportId", report.ID),
		zap.Uint("collectorId", actor.ID),
		zap.Time("deadline", deadline))
	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, err
	}
	s.notify("cleanup_submitted", report)
	return report, nil
}

// ConfirmOutcome is what ConfirmCleanup returns to the citizen.
type ConfirmOutcome struct {
	Report    *entity.Report  `json:"report"`
	Points    PointsBreakdown `json:"points"`
	Confirmed bool            `json:"confirmed"`
}

// ConfirmCleanup records the citizen's verdict on the cleanup photo. The
// caller is authorised either as the report owner or by presenting the
// confirmation code from the notification link.
func (s *ReportService) ConfirmCleanup(actor Actor, reportID uint, code string, confirmed bool, reason string) (*ConfirmOutcome, error) {
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}

	ownerCall := actor.ID != 0 && actor.ID == report.UserID
	codeCall := code != "" && report.ConfirmationCode != nil &&
		strings.EqualFold(code, *report.ConfirmationCode)
	if !ownerCall && !codeCall {
		return nil, apperr.New(apperr.PermissionDenied, "not allowed to confirm this report")
	}

	if report.Status != entity.StatusAwaitingConfirmation {
		return nil, apperr.Newf(apperr.InvalidState, "report is not awaiting confirmation (status: %s)", report.Status)
	}
	if report.CitizenConfirmed {
		return nil, apperr.New(apperr.AlreadySet, "this report has already been confirmed")
	}

	now := s.now()
	if report.ConfirmationDeadline != nil && now.After(*report.ConfirmationDeadline) {
		// Settle the row the same way the sweep would, then tell the
		// caller the window has closed.
		if _, err := s.autoConfirmOne(report); err != nil {
			s.Log.Warn("auto-confirm on expired confirmation failed",
				zap.Uint("reportId", report.ID), zap.Error(err))
		}
		return nil, apperr.New(apperr.Expired, "the confirmation deadline has passed, the report was confirmed automatically")
	}

	if confirmed {
		return s.acceptCleanup(report, now)
	}
	return s.rejectCleanup(report, now, reason)
}

func (s *ReportService) acceptCleanup(report *entity.Report, now time.Time) (*ConfirmOutcome, error) {
	var applied PointsBreakdown
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ensureDescriptionScore(tx, report); err != nil {
			return err
		}
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusAwaitingConfirmation, entity.StatusCompleted, map[string]any{
			"citizen_confirmed":    true,
			"citizen_confirmed_at": now,
			"auto_confirmed":       false,
			"resolved_at":          now,
			"last_action":          "confirmed",
			"last_action_at":       now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return apperr.New(apperr.InvalidState, "report is no longer awaiting confirmation")
		}
		report.CitizenConfirmed = true
		report.CitizenConfirmedAt = &now
		breakdown := s.Scoring.PointsForReport(report)
		applied, err = s.creditPoints(tx, report, breakdown)
		return err
	})
	if err != nil {
		return nil, err
	}

	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, err
	}
	s.notify("report_completed", report)
	return &ConfirmOutcome{Report: report, Points: applied, Confirmed: true}, nil
}

func (s *ReportService) rejectCleanup(report *entity.Report, now time.Time, reason string) (*ConfirmOutcome, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minDisputeReasonLen {
		return nil, apperr.Newf(apperr.Validation, "a rejection needs a reason of at least %d characters", minDisputeReasonLen)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusAwaitingConfirmation, entity.StatusDisputed, map[string]any{
			"dispute_reason": reason,
			"last_action":    "disputed",
			"last_action_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return apperr.New(apperr.InvalidState, "report is no longer awaiting confirmation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("cleanup disputed",
		zap.Uint("reportId", report.ID),
		zap.String("reason", reason))
	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, err
	}
	s.notify("report_disputed", report)
	return &ConfirmOutcome{Report: report, Confirmed: false}, nil
}

// ResolveDispute is the supervisor ruling on a DISPUTED report. Accepting
// sides with the collector and completes the report without crediting
// points. Rejecting sides with the citizen: the cleanup evidence is cleared
// and the report goes back to IN_PROGRESS for a redo.
func (s *ReportService) ResolveDispute(actor Actor, reportID uint, accept bool, notes string) (*entity.Report, error) {
	if !actor.Role.SupervisorTier() {
		return nil, apperr.New(apperr.PermissionDenied, "only supervisors can resolve disputes")
	}
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, err
	}
	if !s.inScope(actor, &report.User) {
		return nil, apperr.New(apperr.PermissionDenied, "report outside your commune")
	}
	if report.Status != entity.StatusDisputed {
		return nil, apperr.Newf(apperr.InvalidState, "report is not disputed (status: %s)", report.Status)
	}

	now := s.now()
	trimmedNotes := strings.TrimSpace(notes)
	description := report.Description
	if trimmedNotes != "" {
		if description != "" {
			description += "\n"
		}
		description += "Notes du superviseur: " + trimmedNotes
	}

	if accept {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusDisputed, entity.StatusCompleted, map[string]any{
				"citizen_confirmed": true,
				"resolved_at":       now,
				"description":       description,
				"last_action":       "dispute_resolved_accepted",
				"last_action_at":    now,
			})
			if err != nil {
				return err
			}
			if !moved {
				return apperr.New(apperr.InvalidState, "report is no longer disputed")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.Log.Info("dispute resolved, cleanup upheld",
			zap.Uint("reportId", report.ID),
			zap.Uint("byUserId", actor.ID))
	} else {
		// The collector redoes the job, so the old evidence goes away.
		if report.CleanupPhotoURL != nil {
			if err := s.Photos.Remove(*report.CleanupPhotoURL); err != nil {
				s.Log.Warn("could not remove rejected cleanup photo",
					zap.String("url", *report.CleanupPhotoURL), zap.Error(err))
			}
		}
		// The citizen's reason stays on file with the ruling appended.
		resolution := trimmedNotes
		if resolution == "" {
			resolution = "Rejeté sans commentaire"
		}
		trail := ""
		if report.DisputeReason != nil {
			trail = *report.DisputeReason + "\n\n"
		}
		trail += "Résolution superviseur: " + resolution
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusDisputed, entity.StatusInProgress, map[string]any{
				"cleanup_photo_url":          nil,
				"cleanup_photo_submitted_at": nil,
				"confirmation_code":          nil,
				"confirmation_deadline":      nil,
				"citizen_confirmed":          false,
				"dispute_reason":             trail,
				"description":                description,
				"last_action":                "dispute_resolved_rejected",
				"last_action_at":             now,
			})
			if err != nil {
				return err
			}
			if !moved {
				return apperr.New(apperr.InvalidState, "report is no longer disputed")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.Log.Info("dispute resolved, cleanup rejected",
			zap.Uint("reportId", report.ID),
			zap.Uint("byUserId", actor.ID))
	}

	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, err
	}
	s.notify("dispute_resolved", report)
	return report, nil
}

// RecordWeight sets the collected weight once. Weight points are credited
// immediately through the ledger, so a later confirmation cannot pay the
// weight component a second time.
func (s *ReportService) RecordWeight(actor Actor, reportID uint, weightKg float64) (*entity.Report, PointsBreakdown, error) {
	var none PointsBreakdown
	if !actor.Role.IsAgent() {
		return nil, none, apperr.New(apperr.PermissionDenied, "only field agents can record weights")
	}
	if weightKg <= 0 || weightKg > maxWeightKg {
		return nil, none, apperr.Newf(apperr.Validation, "weight must be between 0 and %.0f kg", maxWeightKg)
	}
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, none, err
	}
	if actor.Role == entity.RoleCollector {
		if report.CollectorID == nil || *report.CollectorID != actor.ID {
			return nil, none, apperr.New(apperr.PermissionDenied, "report is not assigned to you")
		}
	} else if !s.inScope(actor, &report.User) {
		return nil, none, apperr.New(apperr.PermissionDenied, "report outside your commune")
	}

	now := s.now()
	weightPoints := int(math.Floor(weightKg * float64(s.Scoring.Config().PointsPerKg)))
	var applied PointsBreakdown
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		set, err := s.Repo.SetWeightOnce(tx, report.ID, weightKg, actor.ID, now)
		if err != nil {
			return err
		}
		if !set {
			return apperr.New(apperr.AlreadySet, "a weight has already been recorded for this report")
		}
		applied, err = s.creditPoints(tx, report, PointsBreakdown{
			Details: map[string]int{"weight": weightPoints},
			Total:   weightPoints,
		})
		return err
	})
	if err != nil {
		return nil, none, err
	}

	s.Log.Info("weight recorded",
		zap.Uint("reportId", report.ID),
		zap.Float64("weightKg", weightKg),
		zap.Uint("byUserId", actor.ID))
	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, none, err
	}
	return report, applied, nil
}

// LegacyConfirm is the pre-photo confirmation flow kept for older clients.
// It only applies while the report is IN_PROGRESS; once a cleanup photo is
// up, the code flow is the only valid path.
func (s *ReportService) LegacyConfirm(actor Actor, reportID uint) (*entity.Report, PointsBreakdown, error) {
	var none PointsBreakdown
	report, err := s.loadWithUsers(reportID)
	if err != nil {
		return nil, none, err
	}
	if report.UserID != actor.ID {
		return nil, none, apperr.New(apperr.PermissionDenied, "you can only confirm your own reports")
	}
	if report.Status == entity.StatusAwaitingConfirmation {
		return nil, none, apperr.New(apperr.InvalidState, "a cleanup photo is pending, use the confirmation link instead")
	}
	if report.Status != entity.StatusInProgress {
		return nil, none, apperr.Newf(apperr.InvalidState, "cannot confirm from %s", report.Status)
	}

	now := s.now()
	var applied PointsBreakdown
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusInProgress, entity.StatusCompleted, map[string]any{
			"citizen_confirmed":    true,
			"citizen_confirmed_at": now,
			"resolved_at":          now,
			"last_action":          "legacy_confirmed",
			"last_action_at":       now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return apperr.New(apperr.InvalidState, "report is no longer in progress")
		}
		bonus := s.Scoring.Config().LegacyConfirmBonus
		applied, err = s.creditPoints(tx, report, PointsBreakdown{
			Details: map[string]int{"legacy_bonus": bonus},
			Total:   bonus,
		})
		return err
	})
	if err != nil {
		return nil, none, err
	}

	report, err = s.loadWithUsers(report.ID)
	if err != nil {
		return nil, none, err
	}
	s.notify("report_completed", report)
	return report, applied, nil
}

// SweepResult summarises one auto-confirm pass.
type SweepResult struct {
	Scanned   int    `json:"scanned"`
	Confirmed int    `json:"confirmed"`
	Points    int    `json:"pointsCredited"`
	Skipped   bool   `json:"skipped,omitempty"`
	Errors    []uint `json:"failedReportIds,omitempty"`
}

// SweepExpiredConfirmations settles every report whose confirmation window
// has lapsed. A redis lock keeps concurrent instances from double-running;
// when the lock is busy the sweep is a no-op.
func (s *ReportService) SweepExpiredConfirmations(ctx context.Context) (*SweepResult, error) {
	if s.sweepLock != nil {
		acquired, err := s.sweepLock.TryAcquire(ctx)
		if err != nil {
			return nil, err
		}
		if !acquired {
			s.Log.Debug("auto-confirm sweep already running elsewhere")
			return &SweepResult{Skipped: true}, nil
		}
		defer s.sweepLock.Release(ctx)
	}

	expired, err := s.Repo.ListExpiredAwaiting(s.now())
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(expired)}
	for i := range expired {
		report := &expired[i]
		applied, err := s.autoConfirmOne(report)
		if err != nil {
			s.Log.Error("auto-confirm failed",
				zap.Uint("reportId", report.ID), zap.Error(err))
			result.Errors = append(result.Errors, report.ID)
			continue
		}
		result.Confirmed++
		result.Points += applied.Total
	}

	if result.Scanned > 0 {
		s.Log.Info("auto-confirm sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("confirmed", result.Confirmed),
			zap.Int("points", result.Points))
	}
	return result, nil
}

// autoConfirmOne completes a single expired report on the citizen's behalf.
// The CAS guard makes it safe against a citizen confirming concurrently.
func (s *ReportService) autoConfirmOne(report *entity.Report) (PointsBreakdown, error) {
	now := s.now()
	var applied PointsBreakdown
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ensureDescriptionScore(tx, report); err != nil {
			return err
		}
		moved, err := s.Repo.UpdateStatusGuard(tx, report.ID, entity.StatusAwaitingConfirmation, entity.StatusCompleted, map[string]any{
			"auto_confirmed": true,
			"resolved_at":    now,
			"last_action":    "auto_confirmed",
			"last_action_at": now,
		})
		if err != nil {
			return err
		}
		if !moved {
			// Someone else settled it first, nothing to do.
			return nil
		}
		// citizen_confirmed stays false: the auto_confirmed flag records
		// that the system, not the citizen, settled the report.
		report.AutoConfirmed = true
		breakdown := s.Scoring.PointsForReport(report)
		applied, err = s.creditPoints(tx, report, breakdown)
		return err
	})
	return applied, err
}

func (s *ReportService) freshConfirmationCode() (string, error) {
	for attempt := 0; attempt < codeRetryAttempts; attempt++ {
		code := utils.NewConfirmationCode()
		exists, err := s.Repo.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique confirmation code after %d attempts", codeRetryAttempts)
}
