package userhandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videomeet/internal/auth"
	"videomeet/internal/services/directory"
)

type Handler struct {
	svc    directory.IDirectoryService
	secret []byte
}

func New(svc directory.IDirectoryService, secret []byte) *Handler {
	return &Handler{svc: svc, secret: secret}
}

func (h *Handler) Register(r gin.IRouter) {
	authed := r.Group("/api", auth.Middleware(h.secret))
	authed.GET("/departments", h.listDepartments)
	authed.PUT("/users/:id/department", h.switchDepartment)

	hr := authed.Group("", auth.RequireHR())
	hr.GET("/users", h.listUsers)
	hr.POST("/users", h.createUser)
	hr.PUT("/users/:id", h.updateUser)
	hr.DELETE("/users/:id", h.deleteUser)
}

func (h *Handler) listUsers(ginCtx *gin.Context) {
	users, err := h.svc.ListUsers(ginCtx.Request.Context())
	if err != nil {
		internalError(ginCtx, "users.list", err)
		return
	}
	ginCtx.JSON(http.StatusOK, users)
}

func (h *Handler) createUser(ginCtx *gin.Context) {
	var body directory.CreateUserRequest
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	actor := auth.FromContext(ginCtx)
	user, err := h.svc.CreateUser(ginCtx.Request.Context(), actor.UserID, body)
	if err != nil {
		internalError(ginCtx, "users.create", err)
		return
	}
	ginCtx.JSON(http.StatusCreated, user)
}

func (h *Handler) updateUser(ginCtx *gin.Context) {
	id, ok := pathID(ginCtx)
	if !ok {
		return
	}
	var body directory.UpdateUserRequest
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	actor := auth.FromContext(ginCtx)
	user, err := h.svc.UpdateUser(ginCtx.Request.Context(), actor.UserID, id, body)
	if errors.Is(err, directory.ErrUserNotFound) {
		ginCtx.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		internalError(ginCtx, "users.update", err)
		return
	}
	ginCtx.JSON(http.StatusOK, user)
}

func (h *Handler) deleteUser(ginCtx *gin.Context) {
	id, ok := pathID(ginCtx)
	if !ok {
		return
	}

	actor := auth.FromContext(ginCtx)
	err := h.svc.DeleteUser(ginCtx.Request.Context(), actor.UserID, id)
	if errors.Is(err, directory.ErrUserNotFound) {
		ginCtx.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		internalError(ginCtx, "users.delete", err)
		return
	}
	ginCtx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// switchDepartment lets a user move their own department; HR can move anyone.
func (h *Handler) switchDepartment(ginCtx *gin.Context) {
	id, ok := pathID(ginCtx)
	if !ok {
		return
	}

	actor := auth.FromContext(ginCtx)
	if id != actor.UserID && !actor.IsHR {
		ginCtx.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}

	var body SwitchDepartmentBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.svc.SwitchDepartment(ginCtx.Request.Context(), actor.UserID, id, body.DepartmentID)
	if errors.Is(err, directory.ErrUserNotFound) {
		ginCtx.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	if err != nil {
		internalError(ginCtx, "users.switch_department", err)
		return
	}
	ginCtx.JSON(http.StatusOK, user)
}

func (h *Handler) listDepartments(ginCtx *gin.Context) {
	departments, err := h.svc.ListDepartments(ginCtx.Request.Context())
	if err != nil {
		internalError(ginCtx, "departments.list", err)
		return
	}
	ginCtx.JSON(http.StatusOK, departments)
}

func pathID(ginCtx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ginCtx.Param("id"), 10, 64)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func internalError(ginCtx *gin.Context, op string, err error) {
	zap.L().Error(op, zap.Error(err))
	ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}
