package navigation

import (
	"carelink-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, h *Handler, mw *middleware.Auth) {
	nav := router.Group("/navigation")
	nav.POST("/resolve", mw.Optional(), h.Resolve)
}
