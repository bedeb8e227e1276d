package models

import (
	"time"
)

// CriteriaKey names the counter an achievement rule thresholds on.
type CriteriaKey string

const (
	CriteriaTourCompletion   CriteriaKey = "TOUR_COMPLETION"
	CriteriaFriendAdd        CriteriaKey = "FRIEND_ADD"
	CriteriaPubGolfHoleInOne CriteriaKey = "PUBGOLF_HOLE_IN_ONE"
	CriteriaPubGolfStreak    CriteriaKey = "PUBGOLF_STREAK"
	CriteriaStopVisit        CriteriaKey = "STOP_VISIT"
	CriteriaTeamSize         CriteriaKey = "TEAM_SIZE"
	CriteriaCreator          CriteriaKey = "creator"
	CriteriaReviewLeave      CriteriaKey = "REVIEW_LEAVE"
	CriteriaLevelReach       CriteriaKey = "LEVEL_REACH"
)

// AchievementRule: static catalog entry, seeded at boot. Target is a
// threshold re-checked on every relevant event, never a one-shot.
type AchievementRule struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	CriteriaKey CriteriaKey `json:"criteria_key" gorm:"type:varchar(32);not null;index"`
	Target      int64       `json:"target" gorm:"not null"`
	XPReward    int64       `json:"xp_reward" gorm:"not null"`
	Name        string      `json:"name" gorm:"not null"`
	Description string      `json:"description"`
	Rarity      string      `json:"rarity" gorm:"type:varchar(16);default:'common'"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

// UnlockRecord is the one-per-(user, rule) award marker. The unique
// index is the idempotency guard: concurrent first-time triggers race
// on the insert, and exactly one wins.
type UnlockRecord struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"not null;uniqueIndex:idx_unlock_user_rule;index"`
	AchievementRuleID string    `json:"achievement_rule_id" gorm:"not null;uniqueIndex:idx_unlock_user_rule"`
	UnlockedAt        time.Time `json:"unlocked_at" gorm:"autoCreateTime"`
}

// DefaultAchievementRules is the seed catalog. IDs are stable so that
// reseeding on boot is a no-op for existing rows.
var DefaultAchievementRules = []AchievementRule{
	{ID: "ach-first-tour", CriteriaKey: CriteriaTourCompletion, Target: 1, XPReward: 100, Name: "First Crawl", Description: "Finish your first tour", Rarity: "common"},
	{ID: "ach-tour-5", CriteriaKey: CriteriaTourCompletion, Target: 5, XPReward: 300, Name: "Regular", Description: "Finish 5 tours", Rarity: "rare"},
	{ID: "ach-tour-25", CriteriaKey: CriteriaTourCompletion, Target: 25, XPReward: 1000, Name: "Tour Legend", Description: "Finish 25 tours", Rarity: "legendary"},
	{ID: "ach-friend-1", CriteriaKey: CriteriaFriendAdd, Target: 1, XPReward: 50, Name: "Plus One", Description: "Make your first friend", Rarity: "common"},
	{ID: "ach-friend-10", CriteriaKey: CriteriaFriendAdd, Target: 10, XPReward: 250, Name: "Crowd Puller", Description: "Make 10 friends", Rarity: "rare"},
	{ID: "ach-hole-in-one", CriteriaKey: CriteriaPubGolfHoleInOne, Target: 1, XPReward: 150, Name: "Hole in One!", Description: "Down a drink in a single sip", Rarity: "rare"},
	{ID: "ach-hole-in-one-5", CriteriaKey: CriteriaPubGolfHoleInOne, Target: 5, XPReward: 500, Name: "Ace Collector", Description: "Score 5 hole-in-ones", Rarity: "epic"},
	{ID: "ach-streak-5", CriteriaKey: CriteriaPubGolfStreak, Target: 5, XPReward: 200, Name: "On Fire", Description: "Complete 5 challenges in a row", Rarity: "rare"},
	{ID: "ach-streak-10", CriteriaKey: CriteriaPubGolfStreak, Target: 10, XPReward: 600, Name: "Unstoppable", Description: "Complete 10 challenges in a row", Rarity: "epic"},
	{ID: "ach-stops-10", CriteriaKey: CriteriaStopVisit, Target: 10, XPReward: 200, Name: "Bar Hopper", Description: "Complete a challenge at 10 different stops", Rarity: "common"},
	{ID: "ach-stops-50", CriteriaKey: CriteriaStopVisit, Target: 50, XPReward: 800, Name: "City Explorer", Description: "Complete a challenge at 50 different stops", Rarity: "epic"},
	{ID: "ach-team-4", CriteriaKey: CriteriaTeamSize, Target: 4, XPReward: 100, Name: "Party of Four", Description: "Play a session with 4 teams", Rarity: "common"},
	{ID: "ach-team-8", CriteriaKey: CriteriaTeamSize, Target: 8, XPReward: 400, Name: "Full House", Description: "Play a session with 8 teams", Rarity: "epic"},
	{ID: "ach-creator-1", CriteriaKey: CriteriaCreator, Target: 1, XPReward: 150, Name: "Author", Description: "Publish your first tour", Rarity: "common"},
	{ID: "ach-review-1", CriteriaKey: CriteriaReviewLeave, Target: 1, XPReward: 50, Name: "Critic", Description: "Leave your first review", Rarity: "common"},
	{ID: "ach-review-10", CriteriaKey: CriteriaReviewLeave, Target: 10, XPReward: 300, Name: "Connoisseur", Description: "Leave 10 reviews", Rarity: "rare"},
	{ID: "ach-level-5", CriteriaKey: CriteriaLevelReach, Target: 5, XPReward: 100, Name: "Getting Started", Description: "Reach level 5", Rarity: "common"},
	{ID: "ach-level-10", CriteriaKey: CriteriaLevelReach, Target: 10, XPReward: 300, Name: "Seasoned", Description: "Reach level 10", Rarity: "rare"},
	{ID: "ach-level-25", CriteriaKey: CriteriaLevelReach, Target: 25, XPReward: 1000, Name: "Veteran", Description: "Reach level 25", Rarity: "legendary"},
}
