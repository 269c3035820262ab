package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"holdem-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const historyLimit = 50

// Service relays table chat and keeps a short per-table history in redis so
// late joiners see recent messages. rdb may be nil; history is then skipped
// and chat is relay-only.
type Service struct {
	rdb *redis.Client
}

type Entry struct {
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

// Record appends the message to the table's capped history list.
func (s *Service) Record(ctx context.Context, tableID, username, message string) Entry {
	entry := Entry{Username: username, Message: message, SentAt: time.Now()}
	if s.rdb == nil {
		return entry
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return entry
	}
	key := historyKey(tableID)
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -historyLimit, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("chat history write failed",
			zap.String("tableID", tableID),
			zap.Error(err),
		)
	}
	return entry
}

// History returns the retained messages, oldest first. Empty without redis.
func (s *Service) History(ctx context.Context, tableID string) []Entry {
	if s.rdb == nil {
		return nil
	}
	raws, err := s.rdb.LRange(ctx, historyKey(tableID), 0, -1).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("chat history read failed",
				zap.String("tableID", tableID),
				zap.Error(err),
			)
		}
		return nil
	}

	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func historyKey(tableID string) string {
	return fmt.Sprintf("chat:history:%s", tableID)
}
