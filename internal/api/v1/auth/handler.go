package auth

import (
	"errors"
	"net/http"

	"carelink-backend/internal/api/v1/user"
	"carelink-backend/internal/guard"
	"carelink-backend/internal/middleware"
	"carelink-backend/internal/services"
	"carelink-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewHandler(auth *services.AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{auth: auth, log: log}
}

// Register godoc
// @Summary Register a new user
// @Description Register a patient, doctor or pharmacist account
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   RegisterInput  true  "Register Input"
// @Success 201 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	role, _ := guard.ParseRole(input.Role)
	u, err := h.auth.Register(c.Request.Context(), input.Username, input.Password, role)
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			utils.AbortWithError(c, http.StatusConflict, err.Error())
			return
		}
		h.log.Error("Failed to register user", zap.Error(err))
		utils.AbortWithError(c, http.StatusInternalServerError, "Failed to register user due to an internal error")
		return
	}

	c.JSON(http.StatusCreated, utils.Response{
		Status:  http.StatusCreated,
		Message: "User registered successfully",
		Data:    user.NewUserResponse(u, role.Home(), ""),
	})
}

// Login godoc
// @Summary Log in a user
// @Description Log in and receive a session token and the home route for the role
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   LoginInput  true  "Login Input"
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	session, err := h.auth.Login(c.Request.Context(), input.Username, input.Password)
	switch {
	case errors.Is(err, services.ErrUserInactive):
		utils.AbortWithError(c, http.StatusForbidden, "User account is disabled")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.AbortWithError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	case err != nil:
		h.log.Error("Login failed", zap.Error(err))
		utils.AbortWithError(c, http.StatusInternalServerError, "Could not sign in")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully",
		user.NewUserResponse(session.User, session.Home, session.Token)))
}

// Logout godoc
// @Summary Log out a user
// @Description Revoke the current token
// @Tags auth
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	token := c.GetString(middleware.ContextToken)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.log.Error("Failed to revoke token", zap.Error(err))
		utils.AbortWithError(c, http.StatusInternalServerError, "Failed to revoke token")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", utils.RedirectData{Redirect: guard.EntryRoute}))
}
