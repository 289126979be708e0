package user_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"carelink-backend/internal/api/v1/user"
	"carelink-backend/internal/middleware"
	"carelink-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		user           *models.User
		expectedStatus int
		expectedHome   string
	}{
		{
			name:           "Patient",
			user:           &models.User{ID: 1, Username: "patient1", Role: "patient", IsActive: true},
			expectedStatus: http.StatusOK,
			expectedHome:   "/patient/home",
		},
		{
			name:           "Pharmacist",
			user:           &models.User{ID: 2, Username: "pharm", Role: "pharmacist", IsActive: true},
			expectedStatus: http.StatusOK,
			expectedHome:   "/pharmacist/home",
		},
		{
			name:           "User without role",
			user:           &models.User{ID: 3, Username: "legacy", IsActive: true},
			expectedStatus: http.StatusOK,
			expectedHome:   "/auth/login",
		},
		{
			name:           "No user in context",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/auth/me", func(c *gin.Context) {
				if tt.user != nil {
					c.Set(middleware.ContextUser, tt.user)
				}
				c.Next()
			}, user.CurrentUser)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp struct {
				Status int               `json:"status"`
				Data   user.UserResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.user.Username, resp.Data.Username)
			assert.Equal(t, tt.expectedHome, resp.Data.Home)
			assert.Empty(t, resp.Data.Token)
		})
	}
}
