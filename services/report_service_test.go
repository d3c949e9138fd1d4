package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/lock"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

// ----- fixtures -----

type fakeStorage struct {
	saved   int
	removed []string
}

func (f *fakeStorage) Save(_ io.Reader, origName, prefix string) (string, error) {
	f.saved++
	return fmt.Sprintf("/uploads/%s-%d-%s", prefix, f.saved, origName), nil
}

func (f *fakeStorage) Remove(url string) error {
	f.removed = append(f.removed, url)
	return nil
}

type fixture struct {
	db      *gorm.DB
	svc     *ReportService
	users   *repository.UserRepository
	credits *repository.PointCreditRepository
	storage *fakeStorage
	base    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Subscription{}, &entity.Report{}, &entity.PointCredit{},
	))

	users := repository.NewUserRepository(db)
	reports := repository.NewReportRepository(db)
	credits := repository.NewPointCreditRepository(db)
	st := &fakeStorage{}

	svc := NewReportService(db, reports, users, credits,
		NewScoringService(DefaultScoringConfig()), st, zap.NewNop(), nil)

	f := &fixture{
		db:      db,
		svc:     svc,
		users:   users,
		credits: credits,
		storage: st,
		base:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.setNow(f.base)
	return f
}

func (f *fixture) setNow(t time.Time) {
	f.svc.now = func() time.Time { return t }
}

var phoneSeq int

func (f *fixture) makeUser(t *testing.T, role entity.Role, commune string) *entity.User {
	t.Helper()
	phoneSeq++
	u := &entity.User{
		Phone:    fmt.Sprintf("+24389%07d", phoneSeq),
		Password: "x",
		FullName: string(role) + " test",
		Role:     role,
		Commune:  commune,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func actorFor(u *entity.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Commune: u.Commune}
}

const richDescription = "Grand tas de sachets plastiques et bouteilles, environ 5 sacs près du marché. Odeur forte!"

func (f *fixture) makeReport(t *testing.T, citizen *entity.User, desc string) *entity.Report {
	t.Helper()
	report, err := f.svc.Create(actorFor(citizen), &CreateReportIn{
		Latitude:    -4.325,
		Longitude:   15.322,
		Description: desc,
		Photo:       strings.NewReader("jpeg"),
		PhotoName:   "waste.jpg",
	})
	require.NoError(t, err)
	return report
}

// toAwaiting walks a fresh report through take + cleanup photo.
func (f *fixture) toAwaiting(t *testing.T, citizen, collector *entity.User) *entity.Report {
	t.Helper()
	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)
	report, err = f.svc.SubmitCleanupPhoto(actorFor(collector), report.ID, strings.NewReader("after"), "after.jpg", "")
	require.NoError(t, err)
	return report
}

func (f *fixture) points(t *testing.T, userID uint) int {
	t.Helper()
	u, err := f.users.FindByID(userID)
	require.NoError(t, err)
	return u.Points
}

// ----- create / read / delete -----

func TestCreateScoresDescription(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")

	report := f.makeReport(t, citizen, richDescription)

	assert.Equal(t, entity.StatusPending, report.Status)
	assert.Equal(t, "created", report.LastAction)
	require.NotNil(t, report.DescriptionQualityScore)
	assert.Equal(t, 25, *report.DescriptionQualityScore)
	assert.Contains(t, report.ImageURL, "/uploads/reports-")
}

func TestCreateRejectsNonCitizens(t *testing.T) {
	f := newFixture(t)
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	_, err := f.svc.Create(actorFor(collector), &CreateReportIn{
		Latitude: -4.3, Longitude: 15.3,
		Photo: strings.NewReader("x"), PhotoName: "x.jpg",
	})
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

func TestCreateRequiresPhoto(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")

	_, err := f.svc.Create(actorFor(citizen), &CreateReportIn{Latitude: -4.3, Longitude: 15.3})
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestDetailVisibility(t *testing.T) {
	f := newFixture(t)
	owner := f.makeUser(t, entity.RoleCitizen, "Gombe")
	other := f.makeUser(t, entity.RoleCitizen, "Gombe")
	farCollector := f.makeUser(t, entity.RoleCollector, "Ngaliema")
	admin := f.makeUser(t, entity.RoleAdmin, "")

	report := f.makeReport(t, owner, richDescription)

	_, err := f.svc.Detail(actorFor(owner), report.ID)
	assert.NoError(t, err)

	_, err = f.svc.Detail(actorFor(other), report.ID)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	_, err = f.svc.Detail(actorFor(farCollector), report.ID)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	_, err = f.svc.Detail(actorFor(admin), report.ID)
	assert.NoError(t, err)
}

func TestDeleteOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	require.NoError(t, f.svc.DeleteByCitizen(actorFor(citizen), report.ID))

	report = f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	err = f.svc.DeleteByCitizen(actorFor(citizen), report.ID)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

// ----- assignment -----

func TestAssignHappyPath(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")
	supervisor := f.makeUser(t, entity.RoleSupervisor, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	report, err := f.svc.Assign(actorFor(supervisor), report.ID, collector.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAssigned, report.Status)
	require.NotNil(t, report.CollectorID)
	assert.Equal(t, collector.ID, *report.CollectorID)

	// Second assign hits the CAS guard.
	_, err = f.svc.Assign(actorFor(supervisor), report.ID, collector.ID)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestAssignScopedToCommune(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")
	farSupervisor := f.makeUser(t, entity.RoleSupervisor, "Ngaliema")
	coordinator := f.makeUser(t, entity.RoleCoordinator, "Ngaliema")

	report := f.makeReport(t, citizen, richDescription)

	_, err := f.svc.Assign(actorFor(farSupervisor), report.ID, collector.ID)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	// Coordinators operate city-wide.
	_, err = f.svc.Assign(actorFor(coordinator), report.ID, collector.ID)
	assert.NoError(t, err)
}

func TestTakeReportClaimsUnassigned(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	report, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusInProgress, report.Status)
	require.NotNil(t, report.CollectorID)
	assert.Equal(t, collector.ID, *report.CollectorID)
}

func TestTakeReportRespectsAssignment(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	assigned := f.makeUser(t, entity.RoleCollector, "Gombe")
	intruder := f.makeUser(t, entity.RoleCollector, "Gombe")
	supervisor := f.makeUser(t, entity.RoleSupervisor, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.Assign(actorFor(supervisor), report.ID, assigned.ID)
	require.NoError(t, err)

	_, err = f.svc.TakeReport(actorFor(intruder), report.ID)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	_, err = f.svc.TakeReport(actorFor(assigned), report.ID)
	assert.NoError(t, err)
}

// ----- cleanup photo -----

func TestSubmitCleanupPhotoOpensWindow(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	report, err = f.svc.SubmitCleanupPhoto(actorFor(collector), report.ID,
		strings.NewReader("after"), "after.jpg", "nettoyé complètement")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAwaitingConfirmation, report.Status)
	require.NotNil(t, report.ConfirmationCode)
	assert.Len(t, *report.ConfirmationCode, 8)
	require.NotNil(t, report.ConfirmationDeadline)
	assert.Equal(t, f.base.Add(48*time.Hour), report.ConfirmationDeadline.UTC())
	assert.Contains(t, report.Description, "Notes du ramasseur: nettoyé complètement")
}

func TestSubmitCleanupPhotoOnlyByAssignee(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")
	intruder := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitCleanupPhoto(actorFor(intruder), report.ID,
		strings.NewReader("after"), "after.jpg", "")
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

// ----- confirmation -----

func TestConfirmCleanupCreditsPoints(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toAwaiting(t, citizen, collector)

	f.setNow(f.base.Add(time.Hour)) // inside the fast-confirm window
	out, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", true, "")
	require.NoError(t, err)

	assert.True(t, out.Confirmed)
	assert.Equal(t, entity.StatusCompleted, out.Report.Status)
	assert.True(t, out.Report.CitizenConfirmed)
	assert.False(t, out.Report.AutoConfirmed)
	require.NotNil(t, out.Report.ResolvedAt)

	// description 25 + fast confirmation 20
	assert.Equal(t, 25, out.Points.Details["description"])
	assert.Equal(t, 20, out.Points.Details["fast_confirmation"])
	assert.Equal(t, 45, out.Points.Total)
	assert.Equal(t, 45, f.points(t, citizen.ID))
}

func TestConfirmCleanupByCodeAnonymously(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toAwaiting(t, citizen, collector)
	anon := Actor{}

	_, err := f.svc.ConfirmCleanup(anon, report.ID, "WRONGCOD", true, "")
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	out, err := f.svc.ConfirmCleanup(anon, report.ID, *report.ConfirmationCode, true, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, out.Report.Status)
}

func TestConfirmCleanupTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toAwaiting(t, citizen, collector)
	_, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", true, "")
	require.NoError(t, err)

	_, err = f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", true, "")
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestRejectCleanupNeedsRealReason(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toAwaiting(t, citizen, collector)

	_, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", false, "  non  ")
	assert.True(t, apperr.Is(err, apperr.Validation))

	out, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", false, "Le tas de déchets est toujours là")
	require.NoError(t, err)
	assert.False(t, out.Confirmed)
	assert.Equal(t, entity.StatusDisputed, out.Report.Status)
	require.NotNil(t, out.Report.DisputeReason)
	assert.Equal(t, "Le tas de déchets est toujours là", *out.Report.DisputeReason)
	assert.Equal(t, 0, f.points(t, citizen.ID))
}

func TestConfirmAfterDeadlineAutoConfirms(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toAwaiting(t, citizen, collector)

	f.setNow(f.base.Add(49 * time.Hour))
	_, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", true, "")
	assert.True(t, apperr.Is(err, apperr.Expired))

	settled, err := f.svc.Detail(actorFor(citizen), report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, settled.Status)
	assert.True(t, settled.AutoConfirmed)
	assert.False(t, settled.CitizenConfirmed, "the citizen never acted")
	assert.Nil(t, settled.CitizenConfirmedAt)

	// Points credited, but no fast-confirmation bonus 49h later.
	assert.Equal(t, 25, f.points(t, citizen.ID))
}

// ----- dispute resolution -----

func (f *fixture) toDisputed(t *testing.T, citizen, collector *entity.User) *entity.Report {
	t.Helper()
	report := f.toAwaiting(t, citizen, collector)
	out, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", false, "Le dépôt est encore visible")
	require.NoError(t, err)
	return out.Report
}

func TestResolveDisputeAcceptCompletesWithoutPoints(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")
	supervisor := f.makeUser(t, entity.RoleSupervisor, "Gombe")

	report := f.toDisputed(t, citizen, collector)
	report, err := f.svc.ResolveDispute(actorFor(supervisor), report.ID, true, "photo valable")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCompleted, report.Status)
	assert.Equal(t, "dispute_resolved_accepted", report.LastAction)
	assert.Equal(t, 0, f.points(t, citizen.ID))
}

func TestResolveDisputeRejectReopensWork(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")
	supervisor := f.makeUser(t, entity.RoleSupervisor, "Gombe")

	report := f.toDisputed(t, citizen, collector)
	oldPhoto := *report.CleanupPhotoURL

	report, err := f.svc.ResolveDispute(actorFor(supervisor), report.ID, false, "la photo ne correspond pas au lieu")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusInProgress, report.Status)
	assert.Nil(t, report.CleanupPhotoURL)
	assert.Nil(t, report.ConfirmationCode)
	assert.Nil(t, report.ConfirmationDeadline)
	require.NotNil(t, report.DisputeReason)
	assert.Contains(t, *report.DisputeReason, "Le dépôt est encore visible")
	assert.Contains(t, *report.DisputeReason, "Résolution superviseur: la photo ne correspond pas au lieu")
	assert.Contains(t, report.Description, "Notes du superviseur: la photo ne correspond pas au lieu")
	assert.Contains(t, f.storage.removed, oldPhoto)

	// The collector can submit a new photo and finish normally.
	report, err = f.svc.SubmitCleanupPhoto(actorFor(collector), report.ID,
		strings.NewReader("after2"), "after2.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAwaitingConfirmation, report.Status)
}

func TestResolveDisputeNeedsSupervisor(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toDisputed(t, citizen, collector)
	_, err := f.svc.ResolveDispute(actorFor(collector), report.ID, true, "")
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

// ----- weight -----

func TestRecordWeightOnce(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	report, points, err := f.svc.RecordWeight(actorFor(collector), report.ID, 7.5)
	require.NoError(t, err)
	require.NotNil(t, report.WeightKg)
	assert.Equal(t, 7.5, *report.WeightKg)
	assert.Equal(t, 15, points.Total)
	assert.Equal(t, 15, f.points(t, citizen.ID))

	_, _, err = f.svc.RecordWeight(actorFor(collector), report.ID, 9.0)
	assert.True(t, apperr.Is(err, apperr.AlreadySet))
	assert.Equal(t, 15, f.points(t, citizen.ID))
}

func TestRecordWeightValidation(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	_, _, err = f.svc.RecordWeight(actorFor(collector), report.ID, 0)
	assert.True(t, apperr.Is(err, apperr.Validation))
	_, _, err = f.svc.RecordWeight(actorFor(collector), report.ID, 1500)
	assert.True(t, apperr.Is(err, apperr.Validation))

	other := f.makeUser(t, entity.RoleCollector, "Gombe")
	_, _, err = f.svc.RecordWeight(actorFor(other), report.ID, 5)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

// Weight before confirmation must pay the weight component exactly once.
func TestWeightThenConfirmNoDoubleCredit(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)
	_, _, err = f.svc.RecordWeight(actorFor(collector), report.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, f.points(t, citizen.ID)) // floor(10*2)

	_, err = f.svc.SubmitCleanupPhoto(actorFor(collector), report.ID,
		strings.NewReader("after"), "after.jpg", "")
	require.NoError(t, err)

	f.setNow(f.base.Add(time.Hour))
	out, err := f.svc.ConfirmCleanup(actorFor(citizen), report.ID, "", true, "")
	require.NoError(t, err)

	// description 25 + fast 20; weight already paid.
	assert.NotContains(t, out.Points.Details, "weight")
	assert.Equal(t, 45, out.Points.Total)
	assert.Equal(t, 65, f.points(t, citizen.ID))

	credits, err := f.credits.ListForReport(report.ID)
	require.NoError(t, err)
	assert.Len(t, credits, 3)
}

// ----- legacy confirm -----

func TestLegacyConfirmFlatBonus(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.makeReport(t, citizen, richDescription)
	_, err := f.svc.TakeReport(actorFor(collector), report.ID)
	require.NoError(t, err)

	report, points, err := f.svc.LegacyConfirm(actorFor(citizen), report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, report.Status)
	assert.Equal(t, 100, points.Details["legacy_bonus"])
	assert.Equal(t, 100, f.points(t, citizen.ID))
}

func TestLegacyConfirmRedirectsWhenPhotoPending(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	report := f.toAwaiting(t, citizen, collector)
	_, _, err := f.svc.LegacyConfirm(actorFor(citizen), report.ID)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

// ----- sweep -----

func TestSweepSettlesExpiredOnly(t *testing.T) {
	f := newFixture(t)
	citizenA := f.makeUser(t, entity.RoleCitizen, "Gombe")
	citizenB := f.makeUser(t, entity.RoleCitizen, "Gombe")
	citizenC := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")

	expired1 := f.toAwaiting(t, citizenA, collector)
	expired2 := f.toAwaiting(t, citizenB, collector)

	// Third window opens a day later and is still running at sweep time.
	f.setNow(f.base.Add(24 * time.Hour))
	fresh := f.toAwaiting(t, citizenC, collector)

	f.setNow(f.base.Add(50 * time.Hour))
	result, err := f.svc.SweepExpiredConfirmations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Confirmed)
	assert.Equal(t, 50, result.Points) // 25 description each
	assert.Empty(t, result.Errors)

	for _, id := range []uint{expired1.ID, expired2.ID} {
		r, err := f.svc.Detail(Actor{ID: 1, Role: entity.RoleAdmin}, id)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, r.Status)
		assert.True(t, r.AutoConfirmed)
		assert.False(t, r.CitizenConfirmed)
	}

	r, err := f.svc.Detail(Actor{ID: 1, Role: entity.RoleAdmin}, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAwaitingConfirmation, r.Status)

	// Second sweep finds nothing.
	result, err = f.svc.SweepExpiredConfirmations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Scanned)
}

func TestSweepSkipsWhileLockHeld(t *testing.T) {
	f := newFixture(t)
	citizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	collector := f.makeUser(t, entity.RoleCollector, "Gombe")
	report := f.toAwaiting(t, citizen, collector)

	sweepLock := lock.New("confirmation-sweep", time.Minute, nil)
	f.svc.sweepLock = sweepLock

	ctx := context.Background()
	held, err := sweepLock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, held)

	f.setNow(f.base.Add(50 * time.Hour))
	result, err := f.svc.SweepExpiredConfirmations(ctx)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.Scanned)

	r, err := f.svc.Detail(actorFor(citizen), report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAwaitingConfirmation, r.Status)

	// Once released, the same sweep settles the backlog.
	sweepLock.Release(ctx)
	result, err = f.svc.SweepExpiredConfirmations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Confirmed)
}

// ----- queues -----

func TestListByStatusScoping(t *testing.T) {
	f := newFixture(t)
	gombeCitizen := f.makeUser(t, entity.RoleCitizen, "Gombe")
	ngaCitizen := f.makeUser(t, entity.RoleCitizen, "Ngaliema")
	gombeCollector := f.makeUser(t, entity.RoleCollector, "Gombe")
	ngaCollector := f.makeUser(t, entity.RoleCollector, "Ngaliema")
	admin := f.makeUser(t, entity.RoleAdmin, "")

	f.makeReport(t, gombeCitizen, richDescription)
	f.makeReport(t, ngaCitizen, richDescription)

	gombe, err := f.svc.ListByStatus(actorFor(gombeCollector), entity.StatusPending, 20, 0)
	require.NoError(t, err)
	assert.Len(t, gombe, 1)

	nga, err := f.svc.ListByStatus(actorFor(ngaCollector), entity.StatusPending, 20, 0)
	require.NoError(t, err)
	assert.Len(t, nga, 1)

	all, err := f.svc.ListByStatus(actorFor(admin), entity.StatusPending, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListByStatus(actorFor(gombeCitizen), entity.StatusPending, 20, 0)
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}
