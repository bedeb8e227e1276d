package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionStatus is the session lifecycle state
type SessionStatus string

const (
	SessionWaiting    SessionStatus = "WAITING"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionAbandoned  SessionStatus = "ABANDONED"
)

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// Session is one shared playthrough of a tour template. It exists only
// while at least one team does: the last team's exit deletes it.
type Session struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	TourTemplateID string        `json:"tour_template_id" gorm:"index;not null"`
	HostUserID     string        `json:"host_user_id" gorm:"index;not null"`
	Status         SessionStatus `json:"status" gorm:"type:varchar(16);default:'WAITING';index"`
	InviteCode     string        `json:"invite_code" gorm:"uniqueIndex"`
	WinnerTeamID   *string       `json:"winner_team_id,omitempty"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`

	Teams []Team `json:"teams,omitempty" gorm:"foreignKey:SessionID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Team is one user's unit of participation in a session. The
// (session, user) unique index enforces at most one team per user
// per session at the store level.
type Team struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	SessionID   string     `json:"session_id" gorm:"not null;uniqueIndex:idx_team_session_user"`
	UserID      string     `json:"user_id" gorm:"not null;uniqueIndex:idx_team_session_user;index"`
	Name        string     `json:"name" gorm:"not null"`
	Color       string     `json:"color" gorm:"size:16"`
	Emoji       string     `json:"emoji" gorm:"size:10"`
	CurrentStop int        `json:"current_stop" gorm:"default:0"`
	Streak      int        `json:"streak" gorm:"default:0"`
	Score       int64      `json:"score" gorm:"default:0"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Timestamps adds GORM auto-times. Game rows that must cascade-delete
// for real (teams, progress) declare their own times without the
// soft-delete column.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
