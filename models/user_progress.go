package models

import (
	"time"
)

// UserProgress tracks gamified progression per user. Level is a
// materialized view of the XP curve: every XP-mutating path must
// reconcile it, never trust it as ground truth.
type UserProgress struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null"`

	TotalXP int64 `json:"total_xp" gorm:"default:0"`
	Level   int   `json:"level" gorm:"default:1"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PlayHistoryRecord is the append-only trace of a finished or abandoned
// playthrough, written exactly once per team teardown. It outlives the
// session and team rows it describes.
type PlayHistoryRecord struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	UserID         string        `json:"user_id" gorm:"index;not null"`
	TourTemplateID string        `json:"tour_template_id" gorm:"index;not null"`
	Status         SessionStatus `json:"status" gorm:"type:varchar(16);not null"`
	Score          int64         `json:"score" gorm:"default:0"`
	TeamName       string        `json:"team_name"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
