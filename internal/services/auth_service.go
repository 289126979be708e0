package services

import (
	"context"
	"errors"
	"strings"

	"carelink-backend/internal/guard"
	"carelink-backend/internal/models"
	"carelink-backend/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is disabled")
)

// Session is what a successful login hands back to the app.
type Session struct {
	Token string
	User  *models.User
	Home  string
}

type AuthService struct {
	db       *gorm.DB
	tokens   *utils.TokenIssuer
	denylist *TokenDenylist
	users    *UserService
	log      *zap.Logger
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, denylist *TokenDenylist, users *UserService, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{db: db, tokens: tokens, denylist: denylist, users: users, log: log}
}

func (s *AuthService) Register(ctx context.Context, username, password string, role guard.Role) (*models.User, error) {
	username = strings.TrimSpace(username)

	var existing models.User
	result := s.db.WithContext(ctx).Where("username = ?", username).First(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     string(role),
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	s.log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Login checks the password and issues a token. Home is the route the app
// lands on for the user's role.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	home := guard.EntryRoute
	if role, err := guard.ParseRole(user.Role); err == nil {
		home = role.Home()
	}
	return &Session{Token: token, User: &user, Home: home}, nil
}

// Logout revokes token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return err
	}
	if err := s.denylist.Add(ctx, token, s.tokens.TokenExpiry(claims)); err != nil {
		return err
	}
	if id, ok := claims["user_id"].(float64); ok {
		s.users.Invalidate(ctx, uint(id))
	}
	return nil
}
