package controller

import (
	"fmt"

	"testcracker/internal/service"
	"testcracker/internal/util"

	"github.com/gin-gonic/gin"
)

const maxPaperSize = 20 << 20

type ExamController struct {
	ExamService ExamManager
}

func NewExamController(examService ExamManager) *ExamController {
	return &ExamController{ExamService: examService}
}

// GetExams godoc
// @Summary List exams
// @Tags exams
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param cursor query string false "Id of the first exam to return"
// @Param take query int false "Page size in cursor mode"
// @Param orderBy query string false "e.g. name:asc"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Exam}}
// @Failure 400 {object} util.Response
// @Router /api/exams [get]
func (c *ExamController) GetExams(ctx *gin.Context) {
	p, err := parseListQuery(ctx.Request.URL.Query(), ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page, err := c.ExamService.List(ctx.Request.Context(), p.Query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pageResponse(page.List, page.Total, p, page.NextCursor))
}

// GetExam godoc
// @Summary Get an exam
// @Tags exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	exam, err := c.ExamService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// GetExamByCode godoc
// @Summary Get an exam by code
// @Tags exams
// @Produce json
// @Param code path string true "Exam code"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/exams/code/{code} [get]
func (c *ExamController) GetExamByCode(ctx *gin.Context) {
	exam, err := c.ExamService.GetByCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// CreateExam godoc
// @Summary Create an exam
// @Tags admin-exams
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ExamInput true "Exam"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "Code already exists"
// @Router /api/admin/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req service.ExamInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	exam, err := c.ExamService.Create(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// BulkCreateExams godoc
// @Summary Create several exams in one transaction
// @Tags admin-exams
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body []service.ExamInput true "Exams"
// @Success 201 {object} util.Response{data=[]model.Exam}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/exams/bulk [post]
func (c *ExamController) BulkCreateExams(ctx *gin.Context) {
	var req []service.ExamInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	exams, err := c.ExamService.BulkCreate(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, exams)
}

// UpdateExam godoc
// @Summary Update an exam
// @Tags admin-exams
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Exam ID"
// @Param body body service.UpdateExamInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/exams/{id} [put]
func (c *ExamController) UpdateExam(ctx *gin.Context) {
	var req service.UpdateExamInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	exam, err := c.ExamService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// DeleteExam godoc
// @Summary Delete an exam
// @Description Fails with 409 while attempts reference the exam
// @Tags admin-exams
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Exam ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/exams/{id} [delete]
func (c *ExamController) DeleteExam(ctx *gin.Context) {
	if err := c.ExamService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadPaper godoc
// @Summary Upload the question paper (PDF)
// @Tags admin-exams
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Exam ID"
// @Param file formData file true "PDF file"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/exams/{id}/paper [post]
func (c *ExamController) UploadPaper(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if file.Size > maxPaperSize {
		util.BadRequest(ctx, fmt.Sprintf("file exceeds %d MB", maxPaperSize>>20))
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	exam, err := c.ExamService.UploadPaper(ctx.Request.Context(), ctx.Param("id"), file.Filename, src, file.Size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// GetExamStats godoc
// @Summary Attempt statistics for an exam
// @Tags admin-exams
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Exam ID"
// @Success 200 {object} util.Response{data=service.ExamStats}
// @Failure 404 {object} util.Response
// @Router /api/admin/exams/{id}/stats [get]
func (c *ExamController) GetExamStats(ctx *gin.Context) {
	stats, err := c.ExamService.Stats(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
