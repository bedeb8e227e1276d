package services

import (
	"errors"
	"log"

	"tour-session-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamInfo carries the join-time cosmetics for a new team.
type TeamInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

type TeamService struct {
	DB           *gorm.DB
	Achievements *AchievementService
}

func NewTeamService(db *gorm.DB, achievements *AchievementService) *TeamService {
	return &TeamService{DB: db, Achievements: achievements}
}

// resolveTeam finds the caller's team in a session. Shared by every
// operation that acts "as my team".
func resolveTeam(db *gorm.DB, sessionID, userID string) (*models.Team, error) {
	var team models.Team
	err := db.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// MaterializeTeam creates the team and clones the template's scorable
// sub-entities into team-scoped rows: one PubGolfStop per stop with
// both par and drink, and one BingoCard iff the template runs bingo
// mode with at least one grid-tagged challenge. Identical for the host
// at start and for later joiners — it always reads the session's
// template, which is immutable for the session's lifetime.
func (s *TeamService) MaterializeTeam(tx *gorm.DB, session *models.Session, userID string, info TeamInfo) (*models.Team, error) {
	var template models.TourTemplate
	if err := tx.Preload("Stops").Preload("Challenges").
		Where("id = ?", session.TourTemplateID).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}

	team := models.Team{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		UserID:    userID,
		Name:      info.Name,
		Color:     info.Color,
		Emoji:     info.Emoji,
	}
	if err := tx.Create(&team).Error; err != nil {
		return nil, err
	}

	for _, stop := range template.Stops {
		if !stop.IsPubGolf() {
			continue
		}
		row := models.PubGolfStop{
			ID:     uuid.NewString(),
			TeamID: team.ID,
			StopID: stop.ID,
			Sips:   0, // unplayed
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
	}

	if template.HasMode(models.ModeBingo) {
		hasCells := false
		for _, ch := range template.Challenges {
			if ch.OnBingoGrid() {
				hasCells = true
				break
			}
		}
		if hasCells {
			card := models.BingoCard{
				ID:           uuid.NewString(),
				TeamID:       team.ID,
				AwardedLines: []string{},
			}
			if err := tx.Create(&card).Error; err != nil {
				return nil, err
			}
		}
	}

	return &team, nil
}

// JoinSession adds a new team for userID to an open session. Joining a
// session the user already has a team in returns that team unchanged:
// one team per (user, session), and a re-join is not an error.
func (s *TeamService) JoinSession(sessionID, userID string, info TeamInfo) (*models.Team, error) {
	var session models.Session
	err := s.DB.Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotJoinable
	}
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionWaiting && session.Status != models.SessionInProgress {
		return nil, ErrSessionNotJoinable
	}

	if existing, err := resolveTeam(s.DB, sessionID, userID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrTeamNotFound) {
		return nil, err
	}

	var team *models.Team
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		team, txErr = s.MaterializeTeam(tx, &session, userID, info)
		return txErr
	})
	if err != nil {
		// Two simultaneous joins from one user can both pass the check
		// above; the unique index on (session, user) fails the loser.
		// Resolve it the same way a sequential re-join resolves: hand
		// back the team that won.
		if existing, rerr := resolveTeam(s.DB, sessionID, userID); rerr == nil {
			return existing, nil
		}
		return nil, err
	}

	// Everyone already in the session may now clear a TEAM_SIZE target.
	if err := s.Achievements.CheckTeamSize(session.ID); err != nil {
		log.Printf("⚠️ team-size achievement check failed for session %s: %v", session.ID, err)
	}

	return team, nil
}
