package history_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"holdem-service/internal/game"
	"holdem-service/internal/model"
	historysvc "holdem-service/internal/service/history"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *historysvc.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.HandLog{}); err != nil {
		t.Fatalf("failed to migrate hand log model: %v", err)
	}
	return db, historysvc.NewService(db)
}

func TestRecordHandPersists(t *testing.T) {
	db, svc := newTestService(t)

	svc.RecordHand(game.HandRecord{
		TableID:   "table-rec",
		TableName: "Main",
		Pot:       120,
		Winners: []game.Winner{
			{ID: "7", Username: "alice", Score: 12, Amount: 120},
		},
		Community: []game.Card{{Rank: "A", Suit: "♠", Code: "A♠"}},
		Reason:    "showdown",
	})

	var logs []model.HandLog
	if err := db.Where("table_id = ?", "table-rec").Find(&logs).Error; err != nil {
		t.Fatalf("failed to load hand logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 hand log, got %d", len(logs))
	}
	if logs[0].Pot != 120 || logs[0].Reason != "showdown" {
		t.Fatalf("unexpected log row: %+v", logs[0])
	}

	var winners []game.Winner
	if err := json.Unmarshal([]byte(logs[0].WinnersJSON), &winners); err != nil {
		t.Fatalf("winners column is not valid JSON: %v", err)
	}
	if len(winners) != 1 || winners[0].Username != "alice" {
		t.Fatalf("unexpected winners payload: %+v", winners)
	}
}

func TestListByTableNewestFirstAndLimited(t *testing.T) {
	_, svc := newTestService(t)

	for i := 0; i < 5; i++ {
		svc.RecordHand(game.HandRecord{
			TableID: "table-list",
			Pot:     int64(i + 1),
			Reason:  fmt.Sprintf("hand-%d", i),
		})
	}

	logs, err := svc.ListByTable(context.Background(), "table-list", 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(logs))
	}
	if logs[0].Reason != "hand-4" {
		t.Fatalf("expected newest first, got %+v", logs[0])
	}
}

func TestWithoutDatabaseHistoryIsSilent(t *testing.T) {
	svc := historysvc.NewService(nil)

	svc.RecordHand(game.HandRecord{TableID: "x", Pot: 10})
	logs, err := svc.ListByTable(context.Background(), "x", 10)
	if err != nil || logs != nil {
		t.Fatalf("expected silent no-op, got logs=%v err=%v", logs, err)
	}
}
