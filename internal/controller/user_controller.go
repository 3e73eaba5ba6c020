package controller

import (
	"testcracker/internal/service"
	"testcracker/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController serves the admin user endpoints.
type UserController struct {
	UserService UserManager
}

func NewUserController(userService UserManager) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// GetUsers godoc
// @Summary List users
// @Description Filters are given as field=value or field[op]=value, e.g. role=ADMIN or name[contains]=ra
// @Tags admin-users
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param cursor query string false "Id of the first user to return"
// @Param take query int false "Page size in cursor mode"
// @Param orderBy query string false "e.g. createdAt:desc"
// @Param include query string false "Relations to load: attempts"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.User}}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	p, err := parseListQuery(ctx.Request.URL.Query(), ctx, "attempts")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page, err := c.UserService.List(ctx.Request.Context(), p.Query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pageResponse(page.List, page.Total, p, page.NextCursor))
}

// GetUser godoc
// @Summary Get a user with attempts
// @Tags admin-users
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// CreateUser godoc
// @Summary Create a user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateUserInput true "User"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req service.CreateUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.Create(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Param body body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var req service.UpdateUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Fails with 409 while the user has attempts
// @Tags admin-users
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	if err := c.UserService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetUserStats godoc
// @Summary Users per role
// @Tags admin-users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=map[string]int}
// @Router /api/admin/users/stats [get]
func (c *UserController) GetUserStats(ctx *gin.Context) {
	counts, err := c.UserService.CountByRole(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, counts)
}
