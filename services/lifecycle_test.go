package services

import (
	"sync"
	"testing"

	"tour-session-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTourHostOnly(t *testing.T) {
	env := newTestEnv(t)
	host := "host"
	template := seedTour(t, env.DB, host)
	session, err := env.Sessions.StartSession(template.ID, host, false, TeamInfo{Name: "Hosts"})
	require.NoError(t, err)
	_, err = env.Teams.JoinSession(session.ID, "joiner", TeamInfo{Name: "Late"})
	require.NoError(t, err)

	_, err = env.Lifecycle.StartTour(session.ID, "joiner")
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := env.Lifecycle.StartTour(session.ID, host)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, updated.Status)
	assert.NotNil(t, updated.StartedAt)

	// Starting twice is not a legal transition.
	_, err = env.Lifecycle.StartTour(session.ID, host)
	assert.ErrorIs(t, err, ErrSessionNotJoinable)
}

func TestLastTeamAbandonDeletesSession(t *testing.T) {
	env := newTestEnv(t)
	user := "user-a"
	template := seedTour(t, env.DB, user)
	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Solo"})
	require.NoError(t, err)

	require.NoError(t, env.Lifecycle.Abandon(session.ID, user))

	// A play-history record was written...
	var record models.PlayHistoryRecord
	require.NoError(t, env.DB.Where("user_id = ?", user).First(&record).Error)
	assert.Equal(t, models.SessionAbandoned, record.Status)
	assert.Equal(t, template.ID, record.TourTemplateID)
	assert.Equal(t, "Solo", record.TeamName)

	// ...and the session no longer exists.
	var n int64
	env.DB.Model(&models.Session{}).Where("id = ?", session.ID).Count(&n)
	assert.Zero(t, n)
}

func TestFinishWithRemainingTeamsKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	host := "host"
	template := seedTour(t, env.DB, host)
	session, err := env.Sessions.StartSession(template.ID, host, false, TeamInfo{Name: "Hosts"})
	require.NoError(t, err)
	_, err = env.Teams.JoinSession(session.ID, "joiner", TeamInfo{Name: "Late"})
	require.NoError(t, err)

	_, err = env.Scoring.CompleteChallenge(session.ID, template.Challenges[0].ID, host)
	require.NoError(t, err)

	require.NoError(t, env.Lifecycle.Finish(session.ID, host))

	// Host's record carries the final score; the session persists for
	// the remaining team, with the finisher leading as winner.
	var record models.PlayHistoryRecord
	require.NoError(t, env.DB.Where("user_id = ?", host).First(&record).Error)
	assert.Equal(t, models.SessionCompleted, record.Status)
	assert.Equal(t, int64(50), record.Score)

	remaining, err := env.Sessions.GetSession(session.ID)
	require.NoError(t, err)
	require.Len(t, remaining.Teams, 1)
	assert.Equal(t, "joiner", remaining.Teams[0].UserID)
	require.NotNil(t, remaining.WinnerTeamID)

	// The host can start something new now — no conflict remains.
	fresh := seedTour(t, env.DB, host)
	_, err = env.Sessions.StartSession(fresh.ID, host, false, TeamInfo{Name: "Again"})
	require.NoError(t, err)
}

func TestFinishCascadesTeamRows(t *testing.T) {
	env := newTestEnv(t)
	user := "user-a"
	template := seedTour(t, env.DB, user)
	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Solo"})
	require.NoError(t, err)
	teamID := session.Teams[0].ID

	_, err = env.Scoring.CompleteChallenge(session.ID, template.Challenges[0].ID, user)
	require.NoError(t, err)
	_, _, err = env.PubGolf.RecordScore(session.ID, template.Stops[0].ID, 3, user)
	require.NoError(t, err)

	require.NoError(t, env.Lifecycle.Finish(session.ID, user))

	var n int64
	env.DB.Model(&models.ChallengeProgress{}).Where("team_id = ?", teamID).Count(&n)
	assert.Zero(t, n)
	env.DB.Model(&models.PubGolfStop{}).Where("team_id = ?", teamID).Count(&n)
	assert.Zero(t, n)
	env.DB.Model(&models.BingoCard{}).Where("team_id = ?", teamID).Count(&n)
	assert.Zero(t, n)

	// History outlives the teardown.
	env.DB.Model(&models.PlayHistoryRecord{}).Where("user_id = ?", user).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestFinishUnlocksTourCompletion(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.Achievements.SeedRules())

	user := "user-a"
	template := seedTour(t, env.DB, user)
	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Solo"})
	require.NoError(t, err)

	require.NoError(t, env.Lifecycle.Finish(session.ID, user))

	var rec models.UnlockRecord
	require.NoError(t, env.DB.
		Where("user_id = ? AND achievement_rule_id = ?", user, "ach-first-tour").
		First(&rec).Error)
}

// A finish and an abandon racing on the same team must produce exactly
// one play-history record: the team delete inside the transaction is
// the claim, and the exit that loses it reports ErrTeamNotFound with
// nothing written.
func TestConcurrentExitsWriteOneHistoryRecord(t *testing.T) {
	env := newTestEnv(t)
	user := "user-a"
	template := seedTour(t, env.DB, user)
	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Solo"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	exits := []func(string, string) error{env.Lifecycle.Finish, env.Lifecycle.Abandon}
	for i, exit := range exits {
		wg.Add(1)
		go func(i int, exit func(string, string) error) {
			defer wg.Done()
			errs[i] = exit(session.ID, user)
		}(i, exit)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrTeamNotFound)
		}
	}
	assert.Equal(t, 1, won)

	var n int64
	env.DB.Model(&models.PlayHistoryRecord{}).Where("user_id = ?", user).Count(&n)
	assert.Equal(t, int64(1), n)
	env.DB.Model(&models.Session{}).Where("id = ?", session.ID).Count(&n)
	assert.Zero(t, n)
}

func TestExitWithoutTeam(t *testing.T) {
	env := newTestEnv(t)
	host := "host"
	template := seedTour(t, env.DB, host)
	session, err := env.Sessions.StartSession(template.ID, host, false, TeamInfo{Name: "Hosts"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.Lifecycle.Finish(session.ID, "stranger"), ErrTeamNotFound)
	assert.ErrorIs(t, env.Lifecycle.Abandon("no-such-session", host), ErrTeamNotFound)
}
