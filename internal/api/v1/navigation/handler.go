package navigation

import (
	"errors"
	"net/http"

	"carelink-backend/internal/guard"
	"carelink-backend/internal/middleware"
	"carelink-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	routes *guard.RouteTable
	log    *zap.Logger
}

func NewHandler(routes *guard.RouteTable, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{routes: routes, log: log}
}

// Resolve godoc
// @Summary Resolve an app route
// @Description Run the role guard for the caller's session and return the route the app should show
// @Tags navigation
// @Accept  json
// @Produce  json
// @Param   input     body   ResolveRequest  true  "Route"
// @Success 200 {object} utils.Response{data=navigation.ResolveResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /navigation/resolve [post]
func (h *Handler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session := middleware.SessionFrom(c)
	store := guard.NewSessionStore()
	store.Login(session.Token, session.Role)
	nav, err := guard.NewNavigator(h.routes, store, req.Path, nil)
	switch {
	case errors.Is(err, guard.ErrUnknownRoute):
		utils.AbortWithError(c, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.log.Error("Route guard could not settle", zap.String("path", req.Path), zap.Error(err))
		utils.AbortWithError(c, http.StatusInternalServerError, "Route could not be resolved")
		return
	}
	defer nav.Close()
	location, d := nav.Current()

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", ResolveResponse{
		Path:     req.Path,
		Location: location,
		Redirect: d.Redirect,
		Reason:   string(d.Reason),
	}))
}
