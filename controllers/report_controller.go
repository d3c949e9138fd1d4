package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/resp"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
)

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

// ===== Create (multipart: photo + fields) =====

func (rc *ReportController) Create(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.PostForm("latitude"), 64)
	if err != nil {
		resp.BadRequest(c, "latitude is required")
		return
	}
	lng, err := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if err != nil {
		resp.BadRequest(c, "longitude is required")
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		resp.BadRequest(c, "a photo of the waste is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	defer file.Close()

	report, err := rc.Reports.Create(currentActor(c), &services.CreateReportIn{
		Latitude:           lat,
		Longitude:          lng,
		Description:        c.PostForm("description"),
		AddressDescription: c.PostForm("addressDescription"),
		Photo:              file,
		PhotoName:          fh.Filename,
	})
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.Created(c, report)
}

// ===== Reads =====

func (rc *ReportController) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	report, err := rc.Reports.Detail(currentActor(c), id)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, report)
}

func (rc *ReportController) Mine(c *gin.Context) {
	limit, offset := pagination(c)
	reports, err := rc.Reports.ListMine(currentActor(c), limit, offset)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, reports)
}

// List is the role-scoped report feed: a status filter when given,
// otherwise the recent history for the caller's scope.
func (rc *ReportController) List(c *gin.Context) {
	limit, offset := pagination(c)
	if status := c.Query("status"); status != "" {
		reports, err := rc.Reports.ListByStatus(currentActor(c), entity.ReportStatus(status), limit, offset)
		if err != nil {
			resp.Domain(c, err)
			return
		}
		resp.OK(c, reports)
		return
	}
	reports, err := rc.Reports.History(currentActor(c), queryInt(c, "days", 30), limit, offset)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, reports)
}

func (rc *ReportController) AwaitingConfirmation(c *gin.Context) {
	rc.listByStatus(c, entity.StatusAwaitingConfirmation)
}

func (rc *ReportController) Disputed(c *gin.Context) {
	rc.listByStatus(c, entity.StatusDisputed)
}

func (rc *ReportController) listByStatus(c *gin.Context, status entity.ReportStatus) {
	limit, offset := pagination(c)
	reports, err := rc.Reports.ListByStatus(currentActor(c), status, limit, offset)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, reports)
}

func (rc *ReportController) History(c *gin.Context) {
	limit, offset := pagination(c)
	reports, err := rc.Reports.History(currentActor(c), queryInt(c, "days", 30), limit, offset)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, reports)
}

func (rc *ReportController) CleanupStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	status, err := rc.Reports.GetCleanupStatus(currentActor(c), id)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, status)
}

// ===== Delete =====

func (rc *ReportController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	if err := rc.Reports.DeleteByCitizen(currentActor(c), id); err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}

// ===== Transitions =====

type statusReq struct {
	Status      string `json:"status" binding:"required"`
	CollectorID uint   `json:"collectorId"`
}

// UpdateStatus dispatches the assignment transitions: ASSIGNED needs a
// collectorId, IN_PROGRESS self-assigns the caller.
func (rc *ReportController) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	var (
		report *entity.Report
		err    error
	)
	switch entity.ReportStatus(req.Status) {
	case entity.StatusAssigned:
		if req.CollectorID == 0 {
			resp.BadRequest(c, "collectorId is required to assign")
			return
		}
		report, err = rc.Reports.Assign(currentActor(c), id, req.CollectorID)
	case entity.StatusInProgress:
		report, err = rc.Reports.TakeReport(currentActor(c), id)
	default:
		resp.BadRequest(c, "only ASSIGNED and IN_PROGRESS can be set directly")
		return
	}
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, report)
}

// SubmitCleanupPhoto accepts multipart: the after photo plus optional notes.
func (rc *ReportController) SubmitCleanupPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		resp.BadRequest(c, "a cleanup photo is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	defer file.Close()

	report, err := rc.Reports.SubmitCleanupPhoto(currentActor(c), id, file, fh.Filename, c.PostForm("notes"))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, report)
}

type confirmReq struct {
	Code      string `json:"code"`
	Confirmed *bool  `json:"confirmed" binding:"required"`
	Reason    string `json:"reason"`
}

func (rc *ReportController) ConfirmCleanup(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	out, err := rc.Reports.ConfirmCleanup(currentActor(c), id, req.Code, *req.Confirmed, req.Reason)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, out)
}

type resolveReq struct {
	Accept *bool  `json:"accept" binding:"required"`
	Notes  string `json:"notes"`
}

func (rc *ReportController) ResolveDispute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	report, err := rc.Reports.ResolveDispute(currentActor(c), id, *req.Accept, req.Notes)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, report)
}

type weightReq struct {
	WeightKg float64 `json:"weightKg" binding:"required,gt=0"`
}

func (rc *ReportController) RecordWeight(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	var req weightReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	report, points, err := rc.Reports.RecordWeight(currentActor(c), id, req.WeightKg)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, gin.H{"report": report, "points": points})
}

func (rc *ReportController) LegacyConfirm(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		resp.BadRequest(c, "invalid report id")
		return
	}
	report, points, err := rc.Reports.LegacyConfirm(currentActor(c), id)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, gin.H{"report": report, "points": points})
}
