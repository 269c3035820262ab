package model

import (
	"time"

	"gorm.io/datatypes"
)

// User is a registered account. Guests never touch this table; their
// identity lives only as long as their connection.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	Email        string    `gorm:"unique;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Chips        int64     `gorm:"default:1000" json:"chips"`
	Status       string    `gorm:"default:normal;not null" json:"status"` // normal/banned
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HandLog records one completed hand for auditing. Written best-effort when a
// database is configured; the engine never depends on it.
type HandLog struct {
	ID            int64          `gorm:"primaryKey;autoIncrement"`
	TableID       string         `gorm:"index;size:64"`
	TableName     string
	Pot           int64
	WinnersJSON   datatypes.JSON `gorm:"type:jsonb"`
	CommunityJSON datatypes.JSON `gorm:"type:jsonb"`
	Reason        string         // showdown/last_player/forfeit/forced
	CreatedAt     time.Time
}
