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

// ProgressSnapshot is the per-team view returned after every scoring
// operation: the fresh team row plus its challenge progress.
type ProgressSnapshot struct {
	Team           models.Team                `json:"team"`
	CompletedCount int64                      `json:"completed_count"`
	FailedCount    int64                      `json:"failed_count"`
	Progress       []models.ChallengeProgress `json:"progress"`
}

type ScoringService struct {
	DB           *gorm.DB
	Achievements *AchievementService
}

func NewScoringService(db *gorm.DB, achievements *AchievementService) *ScoringService {
	return &ScoringService{DB: db, Achievements: achievements}
}

// resolveChallenge looks a challenge up within the session's tour. The
// challenge type is deliberately ignored here: location, trivia,
// picture, dare — they all score identically.
func (s *ScoringService) resolveChallenge(sessionID, challengeID string) (*models.TourChallenge, error) {
	var session models.Session
	if err := s.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	var challenge models.TourChallenge
	err := s.DB.Where("id = ? AND tour_template_id = ?", challengeID, session.TourTemplateID).
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// CompleteChallenge marks a challenge done for the caller's team,
// awarding XP, bumping the streak and adding the challenge's points to
// the team score. Re-completing an already-completed pair is a full
// no-op: the claim below flips completed=false→true exactly once, so
// two teammates racing on the same challenge apply one set of effects.
func (s *ScoringService) CompleteChallenge(sessionID, challengeID, userID string) (*ProgressSnapshot, error) {
	team, err := resolveTeam(s.DB, sessionID, userID)
	if err != nil {
		return nil, err
	}
	challenge, err := s.resolveChallenge(sessionID, challengeID)
	if err != nil {
		return nil, err
	}

	claimed := false
	leveled := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Make sure the (team, challenge) row exists, without touching
		// one that does. The unique index keeps this to one row ever.
		seed := models.ChallengeProgress{
			ID:          uuid.NewString(),
			TeamID:      team.ID,
			ChallengeID: challenge.ID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}, {Name: "challenge_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		now := time.Now()
		claim := tx.Model(&models.ChallengeProgress{}).
			Where("team_id = ? AND challenge_id = ? AND completed = ?", team.ID, challenge.ID, false).
			Updates(map[string]interface{}{
				"completed":    true,
				"failed":       false,
				"completed_at": now,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return nil // already completed — no effects
		}
		claimed = true

		if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Updates(map[string]interface{}{
				"streak": gorm.Expr("streak + 1"),
				"score":  gorm.Expr("score + ?", challenge.Points),
			}).Error; err != nil {
			return err
		}

		// The XP commits with the claim: re-completes are no-ops, so an
		// award missed here could never be retried.
		reason := fmt.Sprintf("challenge_%s", challenge.ID)
		_, l, err := s.Achievements.Progression.AwardXPIn(tx, userID, challenge.Points, reason)
		if err != nil {
			return err
		}
		leveled = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	if claimed {
		if leveled {
			if err := s.Achievements.closeLevelRules(userID); err != nil {
				log.Printf("⚠️ level achievement recheck failed for %s: %v", userID, err)
			}
		}
		if err := s.Achievements.CheckStreak(userID, sessionID); err != nil {
			log.Printf("⚠️ streak achievement check failed for %s: %v", userID, err)
		}
		if err := s.Achievements.CheckStopVisits(userID); err != nil {
			log.Printf("⚠️ stop-visit achievement check failed for %s: %v", userID, err)
		}
	}

	return s.Snapshot(team.ID)
}

// FailChallenge records a miss: the streak resets to zero and no XP
// moves. The progress row keeps the failure for presentation.
func (s *ScoringService) FailChallenge(sessionID, challengeID, userID string) (*ProgressSnapshot, error) {
	team, err := resolveTeam(s.DB, sessionID, userID)
	if err != nil {
		return nil, err
	}
	challenge, err := s.resolveChallenge(sessionID, challengeID)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		row := models.ChallengeProgress{
			ID:          uuid.NewString(),
			TeamID:      team.ID,
			ChallengeID: challenge.ID,
			Failed:      true,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}, {Name: "challenge_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"failed": true}),
		}).Create(&row).Error; err != nil {
			return err
		}

		return tx.Model(&models.Team{}).Where("id = ?", team.ID).
			UpdateColumn("streak", 0).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Snapshot(team.ID)
}

// AttachPhoto stores the uploaded-photo URL on the progress row of a
// picture challenge. Presentation only — completion still goes through
// CompleteChallenge like every other type.
func (s *ScoringService) AttachPhoto(sessionID, challengeID, userID, photoURL string) error {
	team, err := resolveTeam(s.DB, sessionID, userID)
	if err != nil {
		return err
	}
	challenge, err := s.resolveChallenge(sessionID, challengeID)
	if err != nil {
		return err
	}

	row := models.ChallengeProgress{
		ID:          uuid.NewString(),
		TeamID:      team.ID,
		ChallengeID: challenge.ID,
		PhotoURL:    photoURL,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "challenge_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"photo_url": photoURL}),
	}).Create(&row).Error
}

// Snapshot recomputes the per-team progress view.
func (s *ScoringService) Snapshot(teamID string) (*ProgressSnapshot, error) {
	var team models.Team
	if err := s.DB.Where("id = ?", teamID).First(&team).Error; err != nil {
		return nil, err
	}

	var progress []models.ChallengeProgress
	if err := s.DB.Where("team_id = ?", teamID).Find(&progress).Error; err != nil {
		return nil, err
	}

	snap := ProgressSnapshot{Team: team, Progress: progress}
	for _, p := range progress {
		if p.Completed {
			snap.CompletedCount++
		}
		if p.Failed {
			snap.FailedCount++
		}
	}
	return &snap, nil
}
