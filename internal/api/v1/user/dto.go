package user

import "carelink-backend/internal/models"

// UserResponse defines the response structure for user information.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
	// Home is the app route the user lands on after sign in.
	Home  string `json:"home"`
	Token string `json:"token,omitempty"`
}

func NewUserResponse(u *models.User, home, token string) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		IsActive: u.IsActive,
		Home:     home,
		Token:    token,
	}
}
