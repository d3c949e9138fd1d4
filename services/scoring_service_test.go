package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

func newScoring() *ScoringService {
	return NewScoringService(DefaultScoringConfig())
}

func TestScoreDescriptionTooShort(t *testing.T) {
	s := newScoring()
	assert.Equal(t, 0, s.ScoreDescription(""))
	assert.Equal(t, 0, s.ScoreDescription("Déchets"))
	assert.Equal(t, 0, s.ScoreDescription("   abc   "))
}

func TestScoreDescriptionNoSignal(t *testing.T) {
	s := newScoring()
	// Long enough but nothing to reward: few words, no keywords, no
	// quantities, no structure.
	assert.Equal(t, 0, s.ScoreDescription("des choses ici même"))
}

func TestScoreDescriptionRich(t *testing.T) {
	s := newScoring()
	desc := "Grand tas de sachets plastiques et bouteilles, environ 5 sacs près du marché. Odeur forte!"
	// 15 words (+5), keywords plastique/plastiques/bouteille/bouteilles/
	// sachet/sacs/tas (+12), "5 sacs" (+4), comma and period (+2),
	// leading capital (+1), "!" (+1).
	assert.Equal(t, 25, s.ScoreDescription(desc))
}

func TestScoreDescriptionClampedAtMax(t *testing.T) {
	s := newScoring()
	desc := "Énorme dépôt sauvage de déchets: plastique, bouteille, sachet, verre, carton, papier, métal, ferraille, matelas, meuble, canapé, électroménager et restes de nourriture organique, très dangereux et médical, environ 20 kg au total. Urgent!"
	assert.Equal(t, s.Config().MaxDescriptionScore, s.ScoreDescription(desc))
}

func TestPointsForReportComponents(t *testing.T) {
	s := newScoring()

	descScore := 25
	weight := 7.5
	photoAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	confirmedAt := photoAt.Add(time.Hour)

	r := &entity.Report{
		DescriptionQualityScore: &descScore,
		WeightKg:                &weight,
		CleanupPhotoSubmittedAt: &photoAt,
		CitizenConfirmed:        true,
		CitizenConfirmedAt:      &confirmedAt,
	}
	b := s.PointsForReport(r)
	assert.Equal(t, 25, b.Details["description"])
	assert.Equal(t, 15, b.Details["weight"]) // floor(7.5 * 2)
	assert.Equal(t, 20, b.Details["fast_confirmation"])
	assert.Equal(t, 60, b.Total)
}

func TestPointsForReportWeightFloors(t *testing.T) {
	s := newScoring()
	weight := 2.6
	b := s.PointsForReport(&entity.Report{WeightKg: &weight})
	assert.Equal(t, 5, b.Details["weight"]) // floor(5.2)
	assert.Equal(t, 5, b.Total)
}

func TestPointsForReportSlowConfirmationNoBonus(t *testing.T) {
	s := newScoring()
	photoAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	confirmedAt := photoAt.Add(25 * time.Hour)
	b := s.PointsForReport(&entity.Report{
		CleanupPhotoSubmittedAt: &photoAt,
		CitizenConfirmed:        true,
		CitizenConfirmedAt:      &confirmedAt,
	})
	assert.NotContains(t, b.Details, "fast_confirmation")
	assert.Equal(t, 0, b.Total)
}

func TestRewardTiers(t *testing.T) {
	s := newScoring()

	reached := s.RewardsReached(2500)
	require.Len(t, reached, 2)
	assert.Equal(t, 1000, reached[0].Threshold)
	assert.Equal(t, "Kit scolaire", reached[0].Reward)
	assert.Equal(t, 2000, reached[1].Threshold)

	next := s.NextReward(2500)
	require.NotNil(t, next)
	assert.Equal(t, 3500, next.Threshold)
	assert.Equal(t, 1000, next.PointsRemaining)

	assert.Nil(t, s.NextReward(8000))

	assert.False(t, s.IsLotteryEligible(999))
	assert.True(t, s.IsLotteryEligible(1000))
}

func TestMonthlySubscriptionPoints(t *testing.T) {
	s := newScoring()
	active := &entity.User{SubscriptionActive: true}
	inactive := &entity.User{SubscriptionActive: false}

	assert.Equal(t, 10, s.MonthlySubscriptionPoints(active, true))
	assert.Equal(t, 0, s.MonthlySubscriptionPoints(active, false))
	assert.Equal(t, 0, s.MonthlySubscriptionPoints(inactive, true))
}
