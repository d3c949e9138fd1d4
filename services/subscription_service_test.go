package services

import (
	"fmt"
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
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

func newSubFixture(t *testing.T) (*SubscriptionService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Subscription{}, &entity.PointCredit{}))

	svc := NewSubscriptionService(db,
		repository.NewSubscriptionRepository(db),
		repository.NewUserRepository(db),
		repository.NewPointCreditRepository(db),
		NewScoringService(DefaultScoringConfig()),
		zap.NewNop())
	return svc, db
}

func subCitizen(t *testing.T, db *gorm.DB, phone string) *entity.User {
	t.Helper()
	u := &entity.User{Phone: phone, Password: "x", Role: entity.RoleCitizen, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSubscribeSetsFlagAndWindow(t *testing.T) {
	svc, db := newSubFixture(t)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	citizen := subCitizen(t, db, "+243890001001")
	sub, err := svc.Subscribe(actorFor(citizen), &SubscribeIn{Months: 3})
	require.NoError(t, err)

	assert.Equal(t, 300, sub.Amount)
	assert.Equal(t, now.AddDate(0, 3, 0), sub.EndDate)

	var u entity.User
	require.NoError(t, db.First(&u, citizen.ID).Error)
	assert.True(t, u.SubscriptionActive)

	collector := &entity.User{Phone: "+243890001002", Password: "x", Role: entity.RoleCollector, IsActive: true}
	require.NoError(t, db.Create(collector).Error)
	_, err = svc.Subscribe(actorFor(collector), &SubscribeIn{})
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

func TestAwardMonthlyPoints(t *testing.T) {
	svc, db := newSubFixture(t)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	active := subCitizen(t, db, "+243890001003")
	_, err := svc.Subscribe(actorFor(active), &SubscribeIn{Months: 1})
	require.NoError(t, err)

	// Subscribed long ago; flag still set but the window is over.
	lapsed := subCitizen(t, db, "+243890001004")
	require.NoError(t, db.Create(&entity.Subscription{
		UserID:    lapsed.ID,
		StartDate: now.AddDate(0, -3, 0),
		EndDate:   now.AddDate(0, -2, 0),
		IsActive:  true,
	}).Error)
	require.NoError(t, db.Model(&entity.User{}).Where("id = ?", lapsed.ID).
		Update("subscription_active", true).Error)

	result, err := svc.AwardMonthlyPoints()
	require.NoError(t, err)

	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Awarded)
	assert.Equal(t, 1, result.Lapsed)
	assert.Equal(t, 10, result.Points)

	var u entity.User
	require.NoError(t, db.First(&u, active.ID).Error)
	assert.Equal(t, 10, u.Points)

	require.NoError(t, db.First(&u, lapsed.ID).Error)
	assert.Equal(t, 0, u.Points)
	assert.False(t, u.SubscriptionActive)
}
