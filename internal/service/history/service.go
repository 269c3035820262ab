package history

import (
	"context"
	"encoding/json"
	"time"

	"holdem-service/internal/game"
	"holdem-service/internal/model"
	"holdem-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service persists completed hands for auditing. With no database it is a
// silent no-op; the engine never waits on it.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordHand is wired as the registry's hand-log hook and runs off the
// table goroutine.
func (s *Service) RecordHand(rec game.HandRecord) {
	if s.db == nil {
		return
	}

	winners, err := json.Marshal(rec.Winners)
	if err != nil {
		return
	}
	community, err := json.Marshal(rec.Community)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := model.HandLog{
		TableID:       rec.TableID,
		TableName:     rec.TableName,
		Pot:           rec.Pot,
		WinnersJSON:   datatypes.JSON(winners),
		CommunityJSON: datatypes.JSON(community),
		Reason:        rec.Reason,
	}
	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		logger.Log.Warn("failed to persist hand log",
			zap.String("tableID", rec.TableID),
			zap.Error(err),
		)
	}
}

// ListByTable returns the most recent hands for one table, newest first.
func (s *Service) ListByTable(ctx context.Context, tableID string, limit int) ([]model.HandLog, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	logs := make([]model.HandLog, 0, limit)
	err := s.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
