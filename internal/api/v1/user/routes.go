package user

import "github.com/gin-gonic/gin"

// RegisterRoutes expects router to already require a session.
func RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.GET("/me", CurrentUser)
}
