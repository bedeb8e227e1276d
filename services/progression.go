package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"tour-session-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LevelConfig: XP needed for *next* level follows a gentle power curve.
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to go from currentLevel to the one
// above it, e.g. xpForNextLevel(1) = XP for L1 → L2.
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// LevelForXP maps cumulative XP to a level. Pure: the stored level is
// only ever a cache of this function's output.
func LevelForXP(totalXP int64) int {
	level := 1
	var threshold int64
	for {
		threshold += xpForNextLevel(level)
		if totalXP < threshold {
			return level
		}
		level++
	}
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureProgress ensures a UserProgress row exists (idempotent)
func (s *ProgressionService) EnsureProgress(userID string) (*models.UserProgress, error) {
	return ensureProgress(s.DB, userID)
}

func ensureProgress(db *gorm.DB, userID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := db.Where("user_id = ?", userID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		prog = models.UserProgress{
			ID:      uuid.NewString(),
			UserID:  userID,
			TotalXP: 0,
			Level:   1,
		}
		if err := db.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// AwardXP applies an XP delta in its own transaction. Callers that
// commit a state change alongside the award use AwardXPIn with their
// transaction instead, so claim and XP commit or roll back together.
func (s *ProgressionService) AwardXP(userID string, xp int64, reason string) (*models.UserProgress, bool, error) {
	return s.AwardXPIn(s.DB, userID, xp, reason)
}

// AwardXPIn applies an XP delta on the given handle with an atomic
// column increment (two teammates scoring at once must not lose an
// update), then reconciles the cached level. Returns the fresh row and
// whether a level was gained. Negative deltas are legal: pub-golf
// edits take XP back.
func (s *ProgressionService) AwardXPIn(db *gorm.DB, userID string, xp int64, reason string) (*models.UserProgress, bool, error) {
	if _, err := ensureProgress(db, userID); err != nil {
		return nil, false, err
	}

	err := db.Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_xp", gorm.Expr("total_xp + ?", xp)).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to apply xp delta for %s: %w", userID, err)
	}

	prog, leveled, err := reconcileLevel(db, userID)
	if err != nil {
		return nil, false, err
	}

	log.Printf("🎮 XP %+d → %s: XP=%d, Lvl=%d (reason: %s)", xp, userID, prog.TotalXP, prog.Level, reason)
	return prog, leveled, nil
}

// ReconcileLevel recomputes the level from cumulative XP and raises the
// cache when the formula says higher. Levels are never taken away, so a
// lower computed value leaves the cache alone.
func (s *ProgressionService) ReconcileLevel(userID string) (*models.UserProgress, bool, error) {
	return reconcileLevel(s.DB, userID)
}

func reconcileLevel(db *gorm.DB, userID string) (*models.UserProgress, bool, error) {
	var prog models.UserProgress
	if err := db.Where("user_id = ?", userID).First(&prog).Error; err != nil {
		return nil, false, fmt.Errorf("progress record not found for %s: %w", userID, err)
	}

	computed := LevelForXP(prog.TotalXP)
	if computed <= prog.Level {
		return &prog, false, nil
	}

	now := time.Now()
	prog.Level = computed
	prog.LastLevelUpAt = &now
	if err := db.Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"level": computed, "last_level_up_at": now}).Error; err != nil {
		return nil, false, err
	}
	log.Printf("🆙 Level up: %s reached Lvl %d", userID, computed)
	return &prog, true, nil
}

// GetProgress returns the user's progress row, creating it on first read.
func (s *ProgressionService) GetProgress(userID string) (*models.UserProgress, error) {
	return s.EnsureProgress(userID)
}
