package user

import (
	"context"
	"strconv"
	"strings"

	"holdem-service/internal/model"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service owns account profiles and the persistent chip balance. db may be
// nil (ephemeral mode); every method then reports ErrPersistenceDisabled or
// degrades to "absent".
type Service struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	Username *string
	Email    *string
	Password *string
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	if s.db == nil {
		return nil, appErr.ErrPersistenceDisabled
	}
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	if s.db == nil {
		return nil, appErr.ErrPersistenceDisabled
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, appErr.ErrInvalidProfileUpdate
		}
		updates["username"] = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, appErr.ErrInvalidProfileUpdate
		}
		updates["email"] = email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, appErr.ErrInvalidProfileUpdate
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) == 0 {
		return nil, appErr.ErrInvalidProfileUpdate
	}

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, appErr.ErrUserNotFound
	}
	return s.GetProfile(ctx, userID)
}

// LoadBalance implements the chip-balance collaborator: absent when the id
// is not a persisted account.
func (s *Service) LoadBalance(ctx context.Context, id string) (int64, bool) {
	if s.db == nil {
		return 0, false
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return 0, false
	}
	return user.Chips, true
}

// SaveBalance writes a seat's final stack back to the account. Best-effort:
// a write failure is logged, never surfaced into the engine.
func (s *Service) SaveBalance(ctx context.Context, id string, chips int64) {
	if s.db == nil {
		return
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return
	}
	if chips < 0 {
		chips = 0
	}
	err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("chips", chips).Error
	if err != nil {
		logger.Log.Warn("failed to persist chip balance",
			zap.String("playerID", id),
			zap.Int64("chips", chips),
			zap.Error(err),
		)
	}
}
