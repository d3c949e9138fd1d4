package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/resp"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/utils"
)

type ScoreController struct {
	Scores  *services.ScoreService
	Reports *services.ReportService
}

func NewScoreController(scores *services.ScoreService, reports *services.ReportService) *ScoreController {
	return &ScoreController{Scores: scores, Reports: reports}
}

func (sc *ScoreController) Me(c *gin.Context) {
	summary, err := sc.Scores.Summary(utils.CurrentUserID(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, summary)
}

func (sc *ScoreController) NextReward(c *gin.Context) {
	summary, err := sc.Scores.Summary(utils.CurrentUserID(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, summary.NextReward)
}

func (sc *ScoreController) Lottery(c *gin.Context) {
	summary, err := sc.Scores.Summary(utils.CurrentUserID(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, gin.H{"eligible": summary.LotteryEligible, "points": summary.Points})
}

func (sc *ScoreController) Thresholds(c *gin.Context) {
	resp.OK(c, sc.Scores.Thresholds())
}

func (sc *ScoreController) Leaderboard(c *gin.Context) {
	boards, err := sc.Reports.GetLeaderboards(queryInt(c, "limit", 10))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, boards)
}
