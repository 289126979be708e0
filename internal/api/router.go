package api

import (
	"time"

	"carelink-backend/internal/api/v1/auth"
	"carelink-backend/internal/api/v1/navigation"
	"carelink-backend/internal/api/v1/payment"
	userRoutes "carelink-backend/internal/api/v1/user"
	"carelink-backend/internal/guard"
	"carelink-backend/internal/middleware"
	"carelink-backend/internal/services"
	"carelink-backend/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer is built from.
type Dependencies struct {
	Tokens      *utils.TokenIssuer
	Denylist    *services.TokenDenylist
	Users       *services.UserService
	Auth        *services.AuthService
	Payments    *services.PaymentService
	Routes      *guard.RouteTable
	CORSOrigins []string
	Log         *zap.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	utils.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(deps.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	}))

	mw := middleware.NewAuth(deps.Tokens, deps.Denylist, deps.Users, deps.Log)

	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1, auth.NewHandler(deps.Auth, deps.Log), mw)
		navigation.RegisterRoutes(v1, navigation.NewHandler(deps.Routes, deps.Log), mw)
		payment.RegisterRoutes(v1, payment.NewHandler(deps.Payments, deps.Log), mw)

		authorized := v1.Group("/")
		authorized.Use(mw.Required())
		{
			userRoutes.RegisterRoutes(authorized)
		}
	}

	return router
}
