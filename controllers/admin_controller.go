package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/resp"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
)

type AdminController struct {
	Reports *services.ReportService
	Export  *services.ExportService
}

func NewAdminController(reports *services.ReportService, export *services.ExportService) *AdminController {
	return &AdminController{Reports: reports, Export: export}
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	stats, err := ac.Reports.Dashboard(currentActor(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, stats)
}

// GlobalStats is the city-wide rollup: the dashboard counters plus the
// rankings in one payload.
func (ac *AdminController) GlobalStats(c *gin.Context) {
	stats, err := ac.Reports.Dashboard(currentActor(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	boards, err := ac.Reports.GetLeaderboards(queryInt(c, "limit", 5))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, gin.H{"stats": stats, "leaderboards": boards})
}

func (ac *AdminController) CommuneStats(c *gin.Context) {
	stats, err := ac.Reports.CommuneStats(currentActor(c), c.Query("commune"))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, stats)
}

// ExportReports streams every report as an xlsx download.
func (ac *AdminController) ExportReports(c *gin.Context) {
	f, err := ac.Export.ReportsWorkbook(currentActor(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("signalements_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
