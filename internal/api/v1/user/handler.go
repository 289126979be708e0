package user

import (
	"net/http"

	"carelink-backend/internal/guard"
	"carelink-backend/internal/middleware"
	"carelink-backend/internal/models"
	"carelink-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// CurrentUser godoc
// @Summary Get current user
// @Description Get the signed in user and the home route for its role
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 401 {object} utils.Response
// @Router /auth/me [get]
func CurrentUser(c *gin.Context) {
	raw, exists := c.Get(middleware.ContextUser)
	if !exists {
		utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, ok := raw.(*models.User)
	if !ok {
		utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	home := guard.EntryRoute
	if role, err := guard.ParseRole(u.Role); err == nil {
		home = role.Home()
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", NewUserResponse(u, home, "")))
}
