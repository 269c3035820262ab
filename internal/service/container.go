package service

import (
	"context"
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/game"
	"holdem-service/internal/service/admin"
	"holdem-service/internal/service/auth"
	"holdem-service/internal/service/chat"
	"holdem-service/internal/service/history"
	"holdem-service/internal/service/user"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Auth    *auth.Service
	User    *user.Service
	Admin   *admin.Service
	Chat    *chat.Service
	History *history.Service
	Tables  *game.Registry
}

// NewContainer wires the services and the table registry together. The
// registry's hooks are the only path from the game engine back into
// persistence, so a nil db/rdb leaves the engine fully functional.
func NewContainer(db *gorm.DB, rdb *redis.Client, sender game.Sender) *Container {
	c := &Container{
		Auth:    auth.NewService(db, rdb),
		User:    user.NewService(db),
		Admin:   admin.NewService(db),
		Chat:    chat.NewService(rdb),
		History: history.NewService(db),
	}

	settings := game.Settings{
		DefaultSmallBlind: config.GlobalConfig.Game.DefaultSmallBlind,
		DefaultBigBlind:   config.GlobalConfig.Game.DefaultBigBlind,
		RevealDelay:       time.Duration(config.GlobalConfig.Game.RevealSeconds) * time.Second,
	}
	hooks := game.Hooks{
		HandLog: c.History.RecordHand,
		SeatReleased: func(playerID string, chips int64, guest bool) {
			if guest {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c.User.SaveBalance(ctx, playerID, chips)
		},
	}
	c.Tables = game.NewRegistry(sender, settings, hooks)
	return c
}

func (c *Container) Start(ctx context.Context) error {
	return c.Admin.EnsureDefaultAdmin(ctx)
}

// BuyIn resolves the chip stack a player sits down with. Registered users
// bring their persisted balance; guests and users without one get the
// configured starting stack.
func (c *Container) BuyIn(ctx context.Context, playerID string, guest bool) int64 {
	if !guest {
		if chips, ok := c.User.LoadBalance(ctx, playerID); ok {
			return chips
		}
	}
	return config.GlobalConfig.Game.StartingChips
}
