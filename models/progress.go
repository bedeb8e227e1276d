package models

import (
	"time"
)

// ChallengeProgress is the per-team record of one challenge attempt.
// The (team, challenge) unique index makes the upsert conditional:
// a pair gets one row ever, updated in place.
type ChallengeProgress struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	TeamID      string     `json:"team_id" gorm:"not null;uniqueIndex:idx_progress_team_challenge"`
	ChallengeID string     `json:"challenge_id" gorm:"not null;uniqueIndex:idx_progress_team_challenge"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	Failed      bool       `json:"failed" gorm:"default:false"`
	PhotoURL    string     `json:"photo_url,omitempty" gorm:"type:text"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PubGolfStop is a team's sip count at one pub-golf stop. Rows are
// materialized at team creation with Sips=0, meaning unplayed.
type PubGolfStop struct {
	ID     string `json:"id" gorm:"primaryKey"`
	TeamID string `json:"team_id" gorm:"not null;uniqueIndex:idx_golf_team_stop"`
	StopID string `json:"stop_id" gorm:"not null;uniqueIndex:idx_golf_team_stop"`
	Sips   int    `json:"sips" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Played reports whether a score has been entered for the stop.
func (p *PubGolfStop) Played() bool {
	return p.Sips > 0
}

// BingoCard tracks a team's bingo bonuses. One per team, and only for
// sessions whose template runs bingo mode with grid-tagged challenges.
type BingoCard struct {
	ID               string   `json:"id" gorm:"primaryKey"`
	TeamID           string   `json:"team_id" gorm:"not null;uniqueIndex"`
	AwardedLines     []string `json:"awarded_lines" gorm:"serializer:json"`
	FullHouseAwarded bool     `json:"full_house_awarded" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
