package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

// ScoreService answers the citizen-facing points and rewards queries on top
// of the pure scoring rules.
type ScoreService struct {
	Users   *repository.UserRepository
	Credits *repository.PointCreditRepository
	Scoring *ScoringService
}

func NewScoreService(users *repository.UserRepository, credits *repository.PointCreditRepository, scoring *ScoringService) *ScoreService {
	return &ScoreService{Users: users, Credits: credits, Scoring: scoring}
}

type ScoreSummary struct {
	Points          int          `json:"points"`
	RewardsReached  []RewardTier `json:"rewardsReached"`
	NextReward      *NextReward  `json:"nextReward"`
	LotteryEligible bool         `json:"lotteryEligible"`
}

func (s *ScoreService) Summary(userID uint) (*ScoreSummary, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	return &ScoreSummary{
		Points:          user.Points,
		RewardsReached:  s.Scoring.RewardsReached(user.Points),
		NextReward:      s.Scoring.NextReward(user.Points),
		LotteryEligible: s.Scoring.IsLotteryEligible(user.Points),
	}, nil
}

// Thresholds exposes the reward ladder for the rewards screen.
func (s *ScoreService) Thresholds() []RewardTier {
	cfg := s.Scoring.Config()
	tiers := make([]RewardTier, 0, len(cfg.RewardThresholds))
	for _, t := range s.Scoring.sortedThresholds() {
		tiers = append(tiers, RewardTier{Threshold: t, Reward: cfg.RewardThresholds[t]})
	}
	return tiers
}
