package services

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

// ScoringConfig holds every weight and threshold behind the citizen points
// programme. Values live in configuration so city hall can retune the
// programme without a code change.
type ScoringConfig struct {
	PointsPerKg         int
	MaxDescriptionScore int
	ConfirmationBonus   int
	SubscriptionPoints  int
	LegacyConfirmBonus  int
	FastConfirmWindow   time.Duration

	// points required -> reward description, used for the lottery tiers
	RewardThresholds map[int]string
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PointsPerKg:         2,
		MaxDescriptionScore: 30,
		ConfirmationBonus:   20,
		SubscriptionPoints:  10,
		LegacyConfirmBonus:  100,
		FastConfirmWindow:   24 * time.Hour,
		RewardThresholds: map[int]string{
			1000: "Kit scolaire",
			2000: "Sac de riz 25kg",
			3500: "Kit nettoyage + congélateur",
			5000: "Moto",
			7500: "Véhicule de collecte",
		},
	}
}

// ScoringService computes points. It is pure: it never touches the DB and
// never mutates its inputs; callers apply the results.
type ScoringService struct {
	cfg ScoringConfig
}

func NewScoringService(cfg ScoringConfig) *ScoringService {
	return &ScoringService{cfg: cfg}
}

func (s *ScoringService) Config() ScoringConfig { return s.cfg }

// Waste keyword dictionary for description quality. Reports are written in
// French; medical/hazardous terms weigh more than generic ones.
var descriptionKeywords = map[string]int{
	"plastique": 2, "bouteille": 2, "sachet": 2, "bouteilles": 2, "plastiques": 2,
	"organique": 2, "nourriture": 2, "restes": 2, "alimentaire": 2,
	"encombrant": 2, "meuble": 2, "électroménager": 2, "canapé": 2, "matelas": 2,
	"médical": 3, "dangereux": 3, "verre": 2, "vitre": 2, "brisé": 1,
	"carton": 1, "papier": 1, "métal": 2, "ferraille": 2,
	"sacs": 1, "tas": 1, "dépôt": 1, "sauvage": 2,
}

var quantityPattern = regexp.MustCompile(`\d+\s*(kg|kilo|kilos|tonne|tonnes|sac|sacs|unité|unités|m|m²|m3)`)

// ScoreDescription rates the quality of a report description on [0, 30].
// Anything under 10 trimmed characters scores zero.
func (s *ScoringService) ScoreDescription(description string) int {
	if len(strings.TrimSpace(description)) < 10 {
		return 0
	}

	score := 0
	lower := strings.ToLower(description)

	// 1. Length
	words := len(strings.Fields(description))
	switch {
	case words >= 20:
		score += 10
	case words >= 10:
		score += 5
	case words >= 5:
		score += 2
	}

	// 2. Waste-specific keywords
	for word, weight := range descriptionKeywords {
		if strings.Contains(lower, word) {
			score += weight
		}
	}

	// 3. Quantities ("3 sacs", "20 kg")
	if quantityPattern.MatchString(lower) {
		score += 4
	}

	// 4. Structure and punctuation
	if strings.Contains(description, ",") && strings.Contains(description, ".") {
		score += 2
	}
	if runes := []rune(description); len(runes) > 0 && unicode.IsUpper(runes[0]) {
		score++
	}
	if strings.ContainsAny(description, "?!") { // urgency
		score++
	}

	if score > s.cfg.MaxDescriptionScore {
		score = s.cfg.MaxDescriptionScore
	}
	return score
}

// PointsBreakdown names each contributing term. Absent terms are omitted,
// not zeroed; Total always equals the sum of Details.
type PointsBreakdown struct {
	Details map[string]int `json:"details"`
	Total   int            `json:"total"`
}

// PointsForReport computes what a report is worth from its stored fields.
// Crediting is the caller's job (see ReportService.creditPoints).
func (s *ScoringService) PointsForReport(r *entity.Report) PointsBreakdown {
	out := PointsBreakdown{Details: map[string]int{}}

	if r.DescriptionQualityScore != nil && *r.DescriptionQualityScore > 0 {
		out.Details["description"] = *r.DescriptionQualityScore
		out.Total += *r.DescriptionQualityScore
	}

	if r.WeightKg != nil && *r.WeightKg > 0 {
		pts := int(math.Floor(*r.WeightKg * float64(s.cfg.PointsPerKg)))
		out.Details["weight"] = pts
		out.Total += pts
	}

	// Fast-confirmation bonus: citizen confirmed within the window after
	// the cleanup photo went up.
	if r.CitizenConfirmed && r.CleanupPhotoSubmittedAt != nil && r.CitizenConfirmedAt != nil {
		if r.CitizenConfirmedAt.Sub(*r.CleanupPhotoSubmittedAt) < s.cfg.FastConfirmWindow {
			out.Details["fast_confirmation"] = s.cfg.ConfirmationBonus
			out.Total += s.cfg.ConfirmationBonus
		}
	}

	return out
}

type RewardTier struct {
	Threshold int    `json:"threshold"`
	Reward    string `json:"reward"`
}

type NextReward struct {
	Threshold       int    `json:"threshold"`
	Reward          string `json:"reward"`
	PointsRemaining int    `json:"pointsRemaining"`
}

func (s *ScoringService) sortedThresholds() []int {
	out := make([]int, 0, len(s.cfg.RewardThresholds))
	for t := range s.cfg.RewardThresholds {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// RewardsReached lists every tier the citizen already qualifies for,
// ascending.
func (s *ScoringService) RewardsReached(points int) []RewardTier {
	var out []RewardTier
	for _, t := range s.sortedThresholds() {
		if points >= t {
			out = append(out, RewardTier{Threshold: t, Reward: s.cfg.RewardThresholds[t]})
		}
	}
	return out
}

// NextReward returns the smallest tier still above the citizen's points,
// or nil when every tier is reached.
func (s *ScoringService) NextReward(points int) *NextReward {
	for _, t := range s.sortedThresholds() {
		if points < t {
			return &NextReward{
				Threshold:       t,
				Reward:          s.cfg.RewardThresholds[t],
				PointsRemaining: t - points,
			}
		}
	}
	return nil
}

// IsLotteryEligible: reached the lowest tier at least.
func (s *ScoringService) IsLotteryEligible(points int) bool {
	ts := s.sortedThresholds()
	if len(ts) == 0 {
		return false
	}
	return points >= ts[0]
}

// MonthlySubscriptionPoints returns the monthly award for a subscribed
// citizen. hasValidSubscription must reflect an unexpired subscription row;
// when it is false the caller clears user.SubscriptionActive so the award
// is not retried every month.
func (s *ScoringService) MonthlySubscriptionPoints(u *entity.User, hasValidSubscription bool) int {
	if !u.SubscriptionActive || !hasValidSubscription {
		return 0
	}
	return s.cfg.SubscriptionPoints
}
