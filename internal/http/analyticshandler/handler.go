package analyticshandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videomeet/internal/auth"
	"videomeet/internal/services/analytics"
)

type Handler struct {
	svc    analytics.IAnalyticsService
	secret []byte
}

func New(svc analytics.IAnalyticsService, secret []byte) *Handler {
	return &Handler{svc: svc, secret: secret}
}

func (h *Handler) Register(r gin.IRouter) {
	hr := r.Group("/api/analytics", auth.Middleware(h.secret), auth.RequireHR())
	hr.GET("/meetings", h.meetings)
	hr.GET("/activity", h.activity)
}

func (h *Handler) meetings(ginCtx *gin.Context) {
	report, err := h.svc.MeetingsReport(ginCtx.Request.Context())
	if err != nil {
		zap.L().Error("analytics.meetings", zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ginCtx.JSON(http.StatusOK, report)
}

func (h *Handler) activity(ginCtx *gin.Context) {
	report, err := h.svc.ActivityReport(ginCtx.Request.Context())
	if err != nil {
		zap.L().Error("analytics.activity", zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ginCtx.JSON(http.StatusOK, report)
}
