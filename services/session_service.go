package services

import (
	"errors"
	"fmt"
	"log"

	"tour-session-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type SessionService struct {
	DB     *gorm.DB
	Teams  *TeamService
	Tokens *TokenClient
}

func NewSessionService(db *gorm.DB, teams *TeamService, tokens *TokenClient) *SessionService {
	return &SessionService{DB: db, Teams: teams, Tokens: tokens}
}

// teardownTeamRows removes everything scoped to a team except the team
// row itself. The lifecycle exit deletes the team first as its claim;
// this cleans up behind it.
func teardownTeamRows(tx *gorm.DB, teamID string) error {
	if err := tx.Where("team_id = ?", teamID).Delete(&models.ChallengeProgress{}).Error; err != nil {
		return err
	}
	if err := tx.Where("team_id = ?", teamID).Delete(&models.PubGolfStop{}).Error; err != nil {
		return err
	}
	return tx.Where("team_id = ?", teamID).Delete(&models.BingoCard{}).Error
}

// teardownTeam removes a team and everything scoped to it. Deletion
// order matches the dependency chain: progress rows first, team last.
func teardownTeam(tx *gorm.DB, teamID string) error {
	if err := teardownTeamRows(tx, teamID); err != nil {
		return err
	}
	return tx.Where("id = ?", teamID).Delete(&models.Team{}).Error
}

// teardownSession removes a session and all its teams' rows.
func teardownSession(tx *gorm.DB, sessionID string) error {
	var teams []models.Team
	if err := tx.Where("session_id = ?", sessionID).Find(&teams).Error; err != nil {
		return err
	}
	for _, team := range teams {
		if err := teardownTeam(tx, team.ID); err != nil {
			return err
		}
	}
	return tx.Where("id = ?", sessionID).Delete(&models.Session{}).Error
}

// activeSessions returns the user's non-terminal sessions, host or
// joiner alike: membership is having a team in the session.
func (s *SessionService) activeSessions(userID string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.
		Joins("JOIN teams ON teams.session_id = sessions.id").
		Where("teams.user_id = ? AND sessions.status IN ?", userID,
			[]models.SessionStatus{models.SessionWaiting, models.SessionInProgress}).
		Find(&sessions).Error
	return sessions, err
}

// StartSession begins a new playthrough of a template as host. A user
// gets one live session at a time: an existing non-terminal session
// fails the call with the conflict attached unless force is set, in
// which case every prior live session is torn down first. Non-authors
// pay one token before anything is created; a failed debit aborts.
//
// The conflict check and the create are two steps, not one atomic
// operation — two near-simultaneous starts from the same user can both
// pass the check. Accepted; a serializable store guard would close it.
func (s *SessionService) StartSession(templateID, userID string, force bool, info TeamInfo) (*models.Session, error) {
	var template models.TourTemplate
	if err := s.DB.Where("id = ?", templateID).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}

	active, err := s.activeSessions(userID)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		if !force {
			return nil, &ActiveSessionConflictError{Session: active[0]}
		}
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			for _, old := range active {
				if err := teardownSession(tx, old.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Printf("💥 Forced teardown: removed %d live session(s) for %s", len(active), userID)
	}

	if template.AuthorID != userID {
		if err := s.Tokens.Debit(userID, 1); err != nil {
			return nil, err
		}
	}

	session := models.Session{
		ID:             uuid.NewString(),
		TourTemplateID: template.ID,
		HostUserID:     userID,
		Status:         models.SessionWaiting,
		InviteCode:     inviteCode(template.Name),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		_, err := s.Teams.MaterializeTeam(tx, &session, userID, info)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎉 Session %s started for tour %q by %s", session.ID, template.Name, userID)
	return s.GetSession(session.ID)
}

// GetSession returns the session with its teams. State is pulled, not
// pushed: this is the read clients poll.
func (s *SessionService) GetSession(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.DB.Preload("Teams").Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// inviteCode builds a short human-readable code from the tour name.
func inviteCode(tourName string) string {
	return fmt.Sprintf("%s-%s", slug.Make(tourName), uuid.NewString()[:6])
}
