package authhandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videomeet/internal/auth"
	"videomeet/internal/services/directory"
)

type Handler struct {
	svc    directory.IDirectoryService
	secret []byte
	ttl    time.Duration
}

func New(svc directory.IDirectoryService, secret []byte, ttl time.Duration) *Handler {
	return &Handler{svc: svc, secret: secret, ttl: ttl}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/api/auth/login", h.login)
}

func (h *Handler) login(ginCtx *gin.Context) {
	var body LoginBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.svc.Authenticate(ginCtx.Request.Context(), body.Email, body.Password)
	if errors.Is(err, directory.ErrInvalidCredentials) {
		ginCtx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		zap.L().Error("auth.login", zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	token, err := auth.GenerateToken(h.secret, auth.Claims{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		IsHR:         user.IsHR,
		DepartmentID: user.DepartmentID,
	}, h.ttl)
	if err != nil {
		zap.L().Error("auth.sign", zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	ginCtx.JSON(http.StatusOK, LoginResponse{Token: token, User: *user})
}
