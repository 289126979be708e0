package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carelink-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

const userCacheTTL = time.Hour

type UserService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewUserService(db *gorm.DB, rdb *redis.Client) *UserService {
	return &UserService{db: db, rdb: rdb}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *UserService) FindUserByID(ctx context.Context, userID uint) (*models.User, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, userCacheKey(userID)).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return &user, nil
			}
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(user); err == nil {
			s.rdb.Set(ctx, userCacheKey(userID), data, userCacheTTL)
		}
	}
	return &user, nil
}

func (s *UserService) Invalidate(ctx context.Context, userID uint) {
	if s.rdb != nil {
		s.rdb.Del(ctx, userCacheKey(userID))
	}
}
