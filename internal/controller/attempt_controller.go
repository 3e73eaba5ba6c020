package controller

import (
	"testcracker/internal/service"
	"testcracker/internal/util"
	"testcracker/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService AttemptManager
}

func NewAttemptController(attemptService AttemptManager) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// StartAttempt godoc
// @Summary Start an attempt
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Exam ID"
// @Success 201 {object} util.Response{data=model.Attempt}
// @Failure 409 {object} util.Response "Unknown exam"
// @Router /api/exams/{id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	attempt, err := c.AttemptService.Start(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// SubmitAttempt godoc
// @Summary Submit an attempt
// @Description An attempt can be submitted once, by its owner or an admin
// @Tags attempts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Param body body service.SubmitInput true "Score"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 400 {object} util.Response "Score out of range"
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Already submitted"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	var req service.SubmitInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.AttemptService.Submit(ctx.Request.Context(), ctx.Param("id"), util.GetUserFromContext(ctx), *req.Score)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	monitoring.AttemptsSubmitted.Inc()
	util.Success(ctx, attempt)
}

// GetAttempt godoc
// @Summary Get an attempt
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	attempt, err := c.AttemptService.Get(ctx.Request.Context(), ctx.Param("id"), util.GetUserFromContext(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// GetMyAttempts godoc
// @Summary List my attempts
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Attempt}}
// @Router /api/attempts/me [get]
func (c *AttemptController) GetMyAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	p, err := parseListQuery(ctx.Request.URL.Query(), ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page, err := c.AttemptService.ListMine(ctx.Request.Context(), claims.UserID, p.Query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pageResponse(page.List, page.Total, p, page.NextCursor))
}

// GetAttempts godoc
// @Summary List all attempts
// @Tags admin-attempts
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param examId query string false "Filter by exam"
// @Param userId query string false "Filter by user"
// @Param include query string false "Relations to load: user, exam"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Attempt}}
// @Router /api/admin/attempts [get]
func (c *AttemptController) GetAttempts(ctx *gin.Context) {
	p, err := parseListQuery(ctx.Request.URL.Query(), ctx, "user", "exam")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page, err := c.AttemptService.List(ctx.Request.Context(), p.Query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pageResponse(page.List, page.Total, p, page.NextCursor))
}

// DeleteAttempt godoc
// @Summary Delete an attempt
// @Tags admin-attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/attempts/{id} [delete]
func (c *AttemptController) DeleteAttempt(ctx *gin.Context) {
	if err := c.AttemptService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetAttemptStats godoc
// @Summary Submitted attempts per exam
// @Tags admin-attempts
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.ExamAttemptStats}
// @Router /api/admin/attempts/stats [get]
func (c *AttemptController) GetAttemptStats(ctx *gin.Context) {
	stats, err := c.AttemptService.Stats(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
