package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/resp"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
)

// TaskController exposes the scheduled jobs as admin-triggered endpoints.
// An external cron (or a k8s CronJob) calls them; the redis lock in the
// sweep keeps overlapping calls harmless.
type TaskController struct {
	Reports *services.ReportService
	Subs    *services.SubscriptionService
}

func NewTaskController(reports *services.ReportService, subs *services.SubscriptionService) *TaskController {
	return &TaskController{Reports: reports, Subs: subs}
}

func (tc *TaskController) SweepConfirmations(c *gin.Context) {
	result, err := tc.Reports.SweepExpiredConfirmations(c.Request.Context())
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, result)
}

func (tc *TaskController) AwardMonthlyPoints(c *gin.Context) {
	result, err := tc.Subs.AwardMonthlyPoints()
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, result)
}
