package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tour-session-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Achievement is the per-user view of one catalog rule.
type Achievement struct {
	Rule       models.AchievementRule `json:"rule"`
	Unlocked   bool                   `json:"unlocked"`
	UnlockedAt *time.Time             `json:"unlocked_at,omitempty"`
}

type AchievementService struct {
	DB          *gorm.DB
	Progression *ProgressionService
}

func NewAchievementService(db *gorm.DB, progression *ProgressionService) *AchievementService {
	return &AchievementService{DB: db, Progression: progression}
}

// SeedRules loads the static catalog, skipping rows that already exist.
// Run at boot; safe to run every boot.
func (s *AchievementService) SeedRules() error {
	for _, rule := range models.DefaultAchievementRules {
		if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to seed achievement rule %s: %w", rule.ID, err)
		}
	}
	return nil
}

// unlockOnce is the idempotent core: at most one UnlockRecord and one
// XP award per (user, rule), ever. The unique index on the record is
// what actually closes the race — when two first-time triggers insert
// concurrently, one gets RowsAffected == 0 and awards nothing.
// Returns whether this call was the one that unlocked, and whether the
// XP award crossed a level threshold.
func (s *AchievementService) unlockOnce(userID string, rule models.AchievementRule) (*models.UnlockRecord, bool, bool, error) {
	var existing models.UnlockRecord
	err := s.DB.Where("user_id = ? AND achievement_rule_id = ?", userID, rule.ID).First(&existing).Error
	if err == nil {
		return &existing, false, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, false, err
	}

	rec := models.UnlockRecord{
		ID:                uuid.NewString(),
		UserID:            userID,
		AchievementRuleID: rule.ID,
	}
	unlockedNow := false
	leveled := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_rule_id"}},
			DoNothing: true,
		}).Create(&rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race; the winner already awarded the XP.
			return tx.Where("user_id = ? AND achievement_rule_id = ?", userID, rule.ID).First(&existing).Error
		}
		unlockedNow = true

		// The reward commits with the record: a failed award rolls the
		// unlock back so a retry can grant both.
		_, l, err := s.Progression.AwardXPIn(tx, userID, rule.XPReward, fmt.Sprintf("achievement_%s", rule.ID))
		if err != nil {
			return err
		}
		leveled = l
		return nil
	})
	if err != nil {
		return nil, false, false, err
	}
	if !unlockedNow {
		return &existing, false, false, nil
	}
	log.Printf("🏆 Achievement unlocked: %s → %s (+%d XP)", rule.Name, userID, rule.XPReward)
	return &rec, true, leveled, nil
}

// Unlock grants a rule to a user if not already granted, then re-checks
// the level since the reward may cross a threshold.
func (s *AchievementService) Unlock(userID string, rule models.AchievementRule) (*Achievement, error) {
	rec, _, leveled, err := s.unlockOnce(userID, rule)
	if err != nil {
		return nil, err
	}
	if leveled {
		if err := s.closeLevelRules(userID); err != nil {
			log.Printf("⚠️ level achievement recheck failed for %s: %v", userID, err)
		}
	}
	unlockedAt := rec.UnlockedAt
	return &Achievement{Rule: rule, Unlocked: true, UnlockedAt: &unlockedAt}, nil
}

// GrantXP awards a standalone XP delta and, when a level was gained,
// closes the LEVEL_REACH fixpoint. Callers that pair XP with a one-shot
// state claim use Progression.AwardXPIn inside their transaction and
// run closeLevelRules after commit instead.
func (s *AchievementService) GrantXP(userID string, xp int64, reason string) (*models.UserProgress, error) {
	prog, leveled, err := s.Progression.AwardXP(userID, xp, reason)
	if err != nil {
		return nil, err
	}
	if leveled {
		if err := s.closeLevelRules(userID); err != nil {
			log.Printf("⚠️ level achievement recheck failed for %s: %v", userID, err)
		}
	}
	return prog, nil
}

// closeLevelRules runs the unlock → XP → level → unlock loop as an
// explicit worklist instead of recursion. Each pass unlocks every
// LEVEL_REACH rule the current level satisfies; the pass after an
// unlock re-reads the level, since reward XP may have raised it again.
// Unlocks are monotonic and the catalog finite, so this terminates.
func (s *AchievementService) closeLevelRules(userID string) error {
	for {
		prog, err := s.Progression.GetProgress(userID)
		if err != nil {
			return err
		}

		var due []models.AchievementRule
		err = s.DB.
			Where("criteria_key = ? AND target <= ?", models.CriteriaLevelReach, prog.Level).
			Where("id NOT IN (?)", s.DB.Model(&models.UnlockRecord{}).
				Select("achievement_rule_id").Where("user_id = ?", userID)).
			Find(&due).Error
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		for _, rule := range due {
			if _, _, _, err := s.unlockOnce(userID, rule); err != nil {
				return err
			}
		}
	}
}

// checkCriteria unlocks every rule of one criteria whose target the
// count meets. Targets are thresholds re-checked on every relevant
// event; unlock idempotency makes the re-check free.
func (s *AchievementService) checkCriteria(userID string, key models.CriteriaKey, count int64) error {
	var rules []models.AchievementRule
	if err := s.DB.Where("criteria_key = ? AND target <= ?", key, count).Find(&rules).Error; err != nil {
		return err
	}

	leveled := false
	for _, rule := range rules {
		_, _, l, err := s.unlockOnce(userID, rule)
		if err != nil {
			return err
		}
		leveled = leveled || l
	}
	if leveled {
		return s.closeLevelRules(userID)
	}
	return nil
}

// CheckTourCompletions thresholds on completed play-history records.
func (s *AchievementService) CheckTourCompletions(userID string) error {
	var n int64
	err := s.DB.Model(&models.PlayHistoryRecord{}).
		Where("user_id = ? AND status = ?", userID, models.SessionCompleted).
		Count(&n).Error
	if err != nil {
		return err
	}
	return s.checkCriteria(userID, models.CriteriaTourCompletion, n)
}

// CheckHoleInOnes thresholds on the user's single-sip stops across
// their live teams.
func (s *AchievementService) CheckHoleInOnes(userID string) error {
	var n int64
	err := s.DB.Model(&models.PubGolfStop{}).
		Joins("JOIN teams ON teams.id = pub_golf_stops.team_id").
		Where("teams.user_id = ? AND pub_golf_stops.sips = 1", userID).
		Count(&n).Error
	if err != nil {
		return err
	}
	return s.checkCriteria(userID, models.CriteriaPubGolfHoleInOne, n)
}

// CheckStreak thresholds on the caller team's current streak.
func (s *AchievementService) CheckStreak(userID, sessionID string) error {
	team, err := resolveTeam(s.DB, sessionID, userID)
	if err != nil {
		return err
	}
	return s.checkCriteria(userID, models.CriteriaPubGolfStreak, int64(team.Streak))
}

// CheckStopVisits thresholds on distinct stops where one of the user's
// teams has a completed challenge.
func (s *AchievementService) CheckStopVisits(userID string) error {
	var n int64
	err := s.DB.Model(&models.ChallengeProgress{}).
		Joins("JOIN teams ON teams.id = challenge_progresses.team_id").
		Joins("JOIN tour_challenges ON tour_challenges.id = challenge_progresses.challenge_id").
		Where("teams.user_id = ? AND challenge_progresses.completed = ? AND tour_challenges.stop_id IS NOT NULL", userID, true).
		Distinct("tour_challenges.stop_id").
		Count(&n).Error
	if err != nil {
		return err
	}
	return s.checkCriteria(userID, models.CriteriaStopVisit, n)
}

// CheckTeamSize thresholds on the session's participant count, for
// every participant.
func (s *AchievementService) CheckTeamSize(sessionID string) error {
	var teams []models.Team
	if err := s.DB.Where("session_id = ?", sessionID).Find(&teams).Error; err != nil {
		return err
	}
	size := int64(len(teams))
	for _, team := range teams {
		if err := s.checkCriteria(team.UserID, models.CriteriaTeamSize, size); err != nil {
			return err
		}
	}
	return nil
}

// externalCriteria are counters owned by other services (friendships,
// authored tours, reviews); their counts arrive with the trigger.
var externalCriteria = map[models.CriteriaKey]bool{
	models.CriteriaFriendAdd:   true,
	models.CriteriaCreator:     true,
	models.CriteriaReviewLeave: true,
}

// CheckExternalCount handles the unlock-by-criteria entry point for
// counters this service does not store.
func (s *AchievementService) CheckExternalCount(userID string, key models.CriteriaKey, count int64) error {
	if !externalCriteria[key] {
		return fmt.Errorf("criteria %s is not externally triggered", key)
	}
	return s.checkCriteria(userID, key, count)
}

// ListForUser returns the whole catalog with per-user unlock state.
func (s *AchievementService) ListForUser(userID string) ([]Achievement, error) {
	var rules []models.AchievementRule
	if err := s.DB.Order("criteria_key, target").Find(&rules).Error; err != nil {
		return nil, err
	}

	var records []models.UnlockRecord
	if err := s.DB.Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(records))
	for _, rec := range records {
		unlockedAt[rec.AchievementRuleID] = rec.UnlockedAt
	}

	out := make([]Achievement, 0, len(rules))
	for _, rule := range rules {
		a := Achievement{Rule: rule}
		if at, ok := unlockedAt[rule.ID]; ok {
			a.Unlocked = true
			t := at
			a.UnlockedAt = &t
		}
		out = append(out, a)
	}
	return out, nil
}
