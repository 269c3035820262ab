package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/model"
	pkgAuth "holdem-service/pkg/auth"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service is the identity collaborator: it issues credentials over REST and
// verifies them for the websocket gateway. Both db and rdb may be nil; with
// no database every verification fails and connections degrade to guests.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

// Identity is what a verified credential resolves to.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Chips    int64  `json:"chips"`
	Guest    bool   `json:"guest"`
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*LoginResult, error) {
	if s.db == nil {
		return nil, appErr.ErrPersistenceDisabled
	}
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, appErr.ErrInvalidCredentials
	}

	var existing model.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, appErr.ErrUserExists
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Chips:        config.GlobalConfig.Game.StartingChips,
		Status:       "normal",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	logger.Log.Info("user registered", zap.Int64("userID", user.ID), zap.String("username", username))
	return s.loginResult(user)
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.db == nil {
		return nil, appErr.ErrPersistenceDisabled
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErr.ErrInvalidCredentials
	}
	if strings.EqualFold(user.Status, "banned") {
		return nil, appErr.ErrInvalidCredentials
	}

	return s.loginResult(user)
}

// Logout denylists the token for its remaining lifetime. Without redis this
// is a no-op; tokens then simply age out.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.rdb == nil {
		return nil
	}
	ttl := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	return s.rdb.Set(ctx, denylistKey(token), "1", ttl).Err()
}

// VerifyIdentity resolves a bearer token to a registered account. Any
// failure is a rejection; the gateway treats rejections as "connect as
// guest", never as a refused connection.
func (s *Service) VerifyIdentity(ctx context.Context, token string) (*Identity, error) {
	if s.db == nil {
		return nil, appErr.ErrPersistenceDisabled
	}

	claims, err := pkgAuth.ParseUserToken(token)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if _, err := s.rdb.Get(ctx, denylistKey(token)).Result(); err == nil {
			return nil, pkgAuth.ErrInvalidToken
		} else if err != redis.Nil {
			logger.Log.Warn("denylist lookup failed", zap.Error(err))
		}
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, claims.SubjectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	if strings.EqualFold(user.Status, "banned") {
		return nil, appErr.ErrInvalidCredentials
	}

	return &Identity{
		ID:       strconv.FormatInt(user.ID, 10),
		Username: user.Username,
		Chips:    user.Chips,
	}, nil
}

func (s *Service) loginResult(user model.User) (*LoginResult, error) {
	token, err := pkgAuth.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	expireAt := time.Now().Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)
	return &LoginResult{Token: token, ExpireAt: expireAt, User: user}, nil
}

func denylistKey(token string) string {
	return fmt.Sprintf("auth:logout:%s", token)
}
