package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/configs"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/controllers"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/middlewares"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/ws"
)

// Deps groups everything the route table needs.
type Deps struct {
	Cfg     *configs.Config
	Auth    *services.AuthService
	Reports *services.ReportService
	Scores  *services.ScoreService
	Subs    *services.SubscriptionService
	Export  *services.ExportService
	Hub     *ws.EventHub
}

func RegisterRoutes(r *gin.Engine, d *Deps) {
	r.Use(middlewares.CORSMiddleware())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	secret := d.Cfg.JWTSecret
	agentRoles := []entity.Role{entity.RoleCollector, entity.RoleSupervisor, entity.RoleCoordinator, entity.RoleAdmin}
	supervisorRoles := []entity.Role{entity.RoleSupervisor, entity.RoleCoordinator, entity.RoleAdmin}

	// Controllers
	authCtrl := controllers.NewAuthController(d.Auth)
	reportCtrl := controllers.NewReportController(d.Reports)
	scoreCtrl := controllers.NewScoreController(d.Scores, d.Reports)
	subCtrl := controllers.NewSubscriptionController(d.Subs)
	adminCtrl := controllers.NewAdminController(d.Reports, d.Export)
	taskCtrl := controllers.NewTaskController(d.Reports, d.Subs)

	// Auth (public)
	a := r.Group("/auth")
	{
		a.POST("/register", authCtrl.Register)
		a.POST("/login", authCtrl.Login)
	}
	aAuth := a.Group("", middlewares.AuthMiddleware(secret))
	{
		aAuth.GET("/me", authCtrl.Me)
		aAuth.PATCH("/me", authCtrl.UpdateMe)
	}

	// Reports. The confirmation pair also works anonymously via the code
	// from the notification link.
	open := r.Group("/reports", middlewares.OptionalAuthMiddleware(secret))
	{
		open.GET("/:id/cleanup-status", reportCtrl.CleanupStatus)
		open.POST("/:id/confirm-cleanup", reportCtrl.ConfirmCleanup)
	}

	reports := r.Group("/reports", middlewares.AuthMiddleware(secret))
	{
		reports.POST("", reportCtrl.Create)
		reports.GET("", reportCtrl.List)
		reports.GET("/mine", reportCtrl.Mine)
		reports.GET("/history", reportCtrl.History)
		reports.GET("/:id", reportCtrl.Detail)
		reports.DELETE("/:id", reportCtrl.Delete)
		reports.PUT("/:id/confirm-collection", reportCtrl.LegacyConfirm)
	}

	agents := r.Group("/reports", middlewares.AuthMiddleware(secret, agentRoles...))
	{
		agents.GET("/awaiting-confirmation", reportCtrl.AwaitingConfirmation)
		agents.PUT("/:id/status", reportCtrl.UpdateStatus)
		agents.PUT("/:id/weight", reportCtrl.RecordWeight)
		agents.POST("/:id/submit-cleanup-photo", reportCtrl.SubmitCleanupPhoto)
	}

	supers := r.Group("/reports", middlewares.AuthMiddleware(secret, supervisorRoles...))
	{
		supers.GET("/disputed", reportCtrl.Disputed)
		supers.PUT("/:id/resolve-dispute", reportCtrl.ResolveDispute)
	}

	// Scores and rewards
	r.GET("/scores/thresholds", scoreCtrl.Thresholds)
	r.GET("/leaderboard", scoreCtrl.Leaderboard)
	scores := r.Group("/scores/me", middlewares.AuthMiddleware(secret))
	{
		scores.GET("", scoreCtrl.Me)
		scores.GET("/next-reward", scoreCtrl.NextReward)
		scores.GET("/lottery", scoreCtrl.Lottery)
	}

	// Subscriptions
	subs := r.Group("/subscriptions", middlewares.AuthMiddleware(secret))
	{
		subs.POST("", subCtrl.Subscribe)
		subs.GET("/me", subCtrl.Mine)
	}

	// Admin dashboards
	admin := r.Group("/admin", middlewares.AuthMiddleware(secret, supervisorRoles...))
	{
		admin.GET("/dashboard", adminCtrl.Dashboard)
		admin.GET("/stats/global", adminCtrl.GlobalStats)
		admin.GET("/stats/by-commune", adminCtrl.CommuneStats)
		admin.GET("/reports/export", adminCtrl.ExportReports)
	}

	// Scheduled jobs, triggered by an external cron
	tasks := r.Group("/tasks", middlewares.AuthMiddleware(secret, entity.RoleAdmin))
	{
		tasks.POST("/auto-confirm-expired", taskCtrl.SweepConfirmations)
		tasks.POST("/monthly-subscription-points", taskCtrl.AwardMonthlyPoints)
	}

	// Live dashboard events
	if d.Hub != nil {
		r.GET("/ws/events", middlewares.WSAuthMiddleware(secret), d.Hub.HandleWebSocket)
	}
}
