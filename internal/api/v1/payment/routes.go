package payment

import (
	"carelink-backend/internal/guard"
	"carelink-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Group is the app route group whose roles may use the payment API.
var Group = guard.RouteGroup{Name: "payment", AllowedRoles: []guard.Role{guard.RolePatient}}

func RegisterRoutes(r *gin.RouterGroup, h *Handler, mw *middleware.Auth) {
	payment := r.Group("/payment")

	// Called by the gateway, authenticated by md5sig.
	payment.POST("/notify", h.Notify)

	patient := payment.Group("")
	patient.Use(mw.Required(), middleware.RequireGroup(Group))
	{
		patient.POST("/checkout", h.Checkout)
		patient.GET("/attempts/:order_id", h.GetAttempt)
		patient.POST("/attempts/:order_id/events", h.Event)
	}
}
