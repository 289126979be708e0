package middleware

import (
	"net/http"

	"carelink-backend/internal/guard"
	"carelink-backend/internal/services"
	"carelink-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUser    = "user"
	ContextUserID  = "user_id"
	ContextSession = "session"
	ContextToken   = "token"
)

type Auth struct {
	tokens   *utils.TokenIssuer
	denylist *services.TokenDenylist
	users    *services.UserService
	log      *zap.Logger
}

func NewAuth(tokens *utils.TokenIssuer, denylist *services.TokenDenylist, users *services.UserService, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{tokens: tokens, denylist: denylist, users: users, log: log}
}

// Required rejects requests without a live session token and stores the
// session in the context. The role comes from the token claims.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if status, msg := a.authenticate(c); status != 0 {
			utils.AbortWithError(c, status, msg)
			return
		}
		c.Next()
	}
}

// Optional stores the session when a valid token is present and otherwise
// lets the request through as signed out.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if status, msg := a.authenticate(c); status == http.StatusInternalServerError {
				utils.AbortWithError(c, status, msg)
				return
			}
		}
		c.Next()
	}
}

// authenticate returns a non-zero status and message when the request carries
// no usable session.
func (a *Auth) authenticate(c *gin.Context) (int, string) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		return http.StatusUnauthorized, err.Error()
	}

	isDenylisted, err := a.denylist.Contains(c.Request.Context(), tokenString)
	if err != nil {
		a.log.Error("Failed to check token denylist", zap.Error(err))
		return http.StatusInternalServerError, "Failed to check token status"
	}
	if isDenylisted {
		return http.StatusUnauthorized, "Token has been revoked"
	}

	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		return http.StatusUnauthorized, "Invalid or expired token"
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return http.StatusUnauthorized, "Invalid user ID in token"
	}
	userID := uint(userIDFloat)

	user, err := a.users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		return http.StatusUnauthorized, "User not found"
	}
	if !user.IsActive {
		return http.StatusForbidden, "User account is disabled"
	}

	role, _ := claims["role"].(string)
	c.Set(ContextUser, user)
	c.Set(ContextUserID, userID)
	c.Set(ContextToken, tokenString)
	c.Set(ContextSession, guard.AuthSession{Token: tokenString, Role: guard.Role(role)})
	return 0, ""
}

// RequireGroup applies the route guard to an API group. Unauthenticated
// callers get 401, callers whose role is not allowed or missing get 403.
// Both carry the route the app should move to.
func RequireGroup(group guard.RouteGroup) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		d := guard.Evaluate(session, group)

		switch {
		case d.Reason == guard.ReasonMissingRole:
			utils.AbortWithError(c, http.StatusForbidden, "Session has no role")
		case d.Reason == guard.ReasonUnauthenticated:
			utils.AbortWithRedirect(c, http.StatusUnauthorized, "Sign in required", d.Target)
		case d.Redirect:
			utils.AbortWithRedirect(c, http.StatusForbidden, "Forbidden: role not allowed", d.Target)
		default:
			c.Next()
		}
	}
}

// SessionFrom returns the session stored by Required, or an empty session.
func SessionFrom(c *gin.Context) guard.AuthSession {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(guard.AuthSession); ok {
			return s
		}
	}
	return guard.AuthSession{}
}

func UserIDFrom(c *gin.Context) (uint, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	userID, ok := id.(uint)
	return userID, ok
}
