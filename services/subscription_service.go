package services

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

type SubscriptionService struct {
	DB      *gorm.DB
	Subs    *repository.SubscriptionRepository
	Users   *repository.UserRepository
	Credits *repository.PointCreditRepository
	Scoring *ScoringService
	Log     *zap.Logger

	now func() time.Time
}

func NewSubscriptionService(
	db *gorm.DB,
	subs *repository.SubscriptionRepository,
	users *repository.UserRepository,
	credits *repository.PointCreditRepository,
	scoring *ScoringService,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		DB:      db,
		Subs:    subs,
		Users:   users,
		Credits: credits,
		Scoring: scoring,
		Log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type SubscribeIn struct {
	Months        int    `json:"months"`
	PaymentMethod string `json:"paymentMethod"`
}

// Subscribe opens or extends a monthly pickup subscription. Payment itself
// is settled out of band by the mobile money provider; this records the
// entitlement.
func (s *SubscriptionService) Subscribe(actor Actor, in *SubscribeIn) (*entity.Subscription, error) {
	if actor.Role != entity.RoleCitizen {
		return nil, apperr.New(apperr.PermissionDenied, "only citizens can subscribe")
	}
	months := in.Months
	if months <= 0 {
		months = 1
	}
	if months > 12 {
		return nil, apperr.New(apperr.Validation, "subscriptions run for at most 12 months")
	}

	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = "mobile_money"
	}

	now := s.now()
	sub := &entity.Subscription{
		UserID:        actor.ID,
		Amount:        100 * months,
		PaymentMethod: method,
		StartDate:     now,
		EndDate:       now.AddDate(0, months, 0),
		IsActive:      true,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Subs.Create(tx, sub); err != nil {
			return err
		}
		return s.Users.Update(actor.ID, map[string]any{"subscription_active": true})
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("subscription opened",
		zap.Uint("userId", actor.ID),
		zap.Int("months", months),
		zap.Time("endDate", sub.EndDate))
	return sub, nil
}

func (s *SubscriptionService) ListMine(actor Actor) ([]entity.Subscription, error) {
	return s.Subs.ListForUser(actor.ID)
}

// MonthlyAwardResult summarises one monthly points run.
type MonthlyAwardResult struct {
	Checked int `json:"checked"`
	Awarded int `json:"awarded"`
	Lapsed  int `json:"lapsed"`
	Points  int `json:"pointsCredited"`
}

// AwardMonthlyPoints grants each subscribed citizen their monthly bonus and
// clears the flag on accounts whose subscription has lapsed. Meant to be
// run once a month by the scheduler endpoint.
func (s *SubscriptionService) AwardMonthlyPoints() (*MonthlyAwardResult, error) {
	citizens, err := s.Users.ListSubscribedCitizens()
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &MonthlyAwardResult{Checked: len(citizens)}
	for i := range citizens {
		user := &citizens[i]
		valid, err := s.Subs.HasValid(user.ID, now)
		if err != nil {
			return result, err
		}
		if !valid {
			if err := s.Users.Update(user.ID, map[string]any{"subscription_active": false}); err != nil {
				return result, err
			}
			result.Lapsed++
			continue
		}
		pts := s.Scoring.MonthlySubscriptionPoints(user, true)
		if pts <= 0 {
			continue
		}
		if err := s.Users.AddPoints(s.DB, user.ID, pts); err != nil {
			return result, err
		}
		result.Awarded++
		result.Points += pts
	}

	s.Log.Info("monthly subscription points awarded",
		zap.Int("checked", result.Checked),
		zap.Int("awarded", result.Awarded),
		zap.Int("lapsed", result.Lapsed))
	return result, nil
}
