package services

import (
	"errors"
	"log"
	"time"

	"tour-session-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LifecycleService struct {
	DB           *gorm.DB
	Achievements *AchievementService
}

func NewLifecycleService(db *gorm.DB, achievements *AchievementService) *LifecycleService {
	return &LifecycleService{DB: db, Achievements: achievements}
}

// StartTour flips a waiting session to in-progress. Host only; the
// transition is explicit, unlike the implicit terminal states.
func (s *LifecycleService) StartTour(sessionID, userID string) (*models.Session, error) {
	var session models.Session
	err := s.DB.Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotJoinable
	}
	if err != nil {
		return nil, err
	}
	if session.HostUserID != userID {
		return nil, ErrUnauthorized
	}
	if session.Status != models.SessionWaiting {
		return nil, ErrSessionNotJoinable
	}

	now := time.Now()
	session.Status = models.SessionInProgress
	session.StartedAt = &now
	if err := s.DB.Model(&models.Session{}).Where("id = ?", session.ID).
		Updates(map[string]interface{}{"status": models.SessionInProgress, "started_at": now}).Error; err != nil {
		return nil, err
	}
	log.Printf("🚀 Session %s is underway", session.ID)
	return &session, nil
}

// Finish records the caller's team as done and removes it.
func (s *LifecycleService) Finish(sessionID, userID string) error {
	return s.exit(sessionID, userID, models.SessionCompleted)
}

// Abandon records the caller's team as having quit and removes it.
func (s *LifecycleService) Abandon(sessionID, userID string) error {
	return s.exit(sessionID, userID, models.SessionAbandoned)
}

// exit is the shared teardown: cascade the team's rows away, write the
// play-history record, and delete the session itself once no team
// remains. A session with zero teams must never persist.
func (s *LifecycleService) exit(sessionID, userID string, status models.SessionStatus) error {
	team, err := resolveTeam(s.DB, sessionID, userID)
	if err != nil {
		return err
	}

	var session models.Session
	if err := s.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return err
	}

	startedAt := team.CreatedAt
	if session.StartedAt != nil {
		startedAt = *session.StartedAt
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// The team delete is the claim: exactly one concurrent exit gets
		// RowsAffected == 1, so exactly one play-history record is
		// written per team.
		claim := tx.Where("id = ?", team.ID).Delete(&models.Team{})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrTeamNotFound
		}
		if err := teardownTeamRows(tx, team.ID); err != nil {
			return err
		}

		record := models.PlayHistoryRecord{
			ID:             uuid.NewString(),
			UserID:         userID,
			TourTemplateID: session.TourTemplateID,
			Status:         status,
			Score:          team.Score,
			TeamName:       team.Name,
			StartedAt:      startedAt,
			FinishedAt:     time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		var remaining []models.Team
		if err := tx.Where("session_id = ?", sessionID).Find(&remaining).Error; err != nil {
			return err
		}
		if len(remaining) == 0 {
			return tx.Where("id = ?", sessionID).Delete(&models.Session{}).Error
		}

		// The finisher claims the winner slot while its score leads
		// everyone still playing.
		if status == models.SessionCompleted {
			leads := true
			for _, other := range remaining {
				if other.Score >= team.Score {
					leads = false
					break
				}
			}
			if leads {
				return tx.Model(&models.Session{}).Where("id = ?", sessionID).
					UpdateColumn("winner_team_id", team.ID).Error
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("🏁 Team %q left session %s as %s (score %d)", team.Name, sessionID, status, team.Score)

	if status == models.SessionCompleted {
		if err := s.Achievements.CheckTourCompletions(userID); err != nil {
			log.Printf("⚠️ tour-completion achievement check failed for %s: %v", userID, err)
		}
	}
	return nil
}
