package services

import (
	"sync"
	"testing"

	"tour-session-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		par  int
		sips int
		want PubGolfCategory
	}{
		{"one sip beats par check", 3, 1, HoleInOne},
		{"one sip even at par one", 1, 1, HoleInOne},
		{"one sip under huge par", 10, 1, HoleInOne},
		{"three under", 6, 3, Albatross},
		{"way under", 10, 2, Albatross},
		{"two under", 5, 3, Eagle},
		{"one under", 4, 3, Birdie},
		{"exactly par", 3, 3, Par},
		{"one over", 3, 4, Bogey},
		{"two over", 3, 5, DoubleBogey},
		{"three over", 3, 6, TripleBogeyPlus},
		{"far over", 3, 12, TripleBogeyPlus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.par, tt.sips))
		})
	}
}

func TestCategoryXPOrdering(t *testing.T) {
	order := []PubGolfCategory{
		HoleInOne, Albatross, Eagle, Birdie, Par, Bogey, DoubleBogey, TripleBogeyPlus,
	}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, CategoryXP(order[i-1]), CategoryXP(order[i]),
			"%s should pay more than %s", order[i-1], order[i])
	}
}

func TestRecordScoreXPDeltas(t *testing.T) {
	env := newTestEnv(t)
	user := "user-a"
	template := seedTour(t, env.DB, user)

	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Crawlers"})
	require.NoError(t, err)

	parThree := template.Stops[0]

	// Materialized at join: two golf rows, both unplayed.
	var rows []models.PubGolfStop
	require.NoError(t, env.DB.Joins("JOIN teams ON teams.id = pub_golf_stops.team_id").
		Where("teams.session_id = ?", session.ID).Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 0, row.Sips)
	}

	// sips=2 on par 3 → birdie, positive delta.
	row, cat, err := env.PubGolf.RecordScore(session.ID, parThree.ID, 2, user)
	require.NoError(t, err)
	assert.Equal(t, Birdie, cat)
	assert.Equal(t, 2, row.Sips)

	prog, err := env.Progression.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, CategoryXP(Birdie), prog.TotalXP)

	// Re-recording the same value is a no-op.
	_, cat, err = env.PubGolf.RecordScore(session.ID, parThree.ID, 2, user)
	require.NoError(t, err)
	assert.Equal(t, Birdie, cat)
	prog, err = env.Progression.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, CategoryXP(Birdie), prog.TotalXP)

	// Editing to sips=1 → hole-in-one, delta is exactly the tier gap.
	_, cat, err = env.PubGolf.RecordScore(session.ID, parThree.ID, 1, user)
	require.NoError(t, err)
	assert.Equal(t, HoleInOne, cat)
	prog, err = env.Progression.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, CategoryXP(HoleInOne), prog.TotalXP)

	// Editing back to sips=2 cancels the net change.
	_, _, err = env.PubGolf.RecordScore(session.ID, parThree.ID, 2, user)
	require.NoError(t, err)
	prog, err = env.Progression.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, CategoryXP(Birdie), prog.TotalXP)

	// Clearing to 0 ("unplayed") takes everything back.
	_, _, err = env.PubGolf.RecordScore(session.ID, parThree.ID, 0, user)
	require.NoError(t, err)
	prog, err = env.Progression.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prog.TotalXP)
}

// Two near-simultaneous submissions of the same score must not both
// bank a full tier of XP: the write is guarded on the sip value the
// delta was computed from, so one submission applies the 0→2
// transition and the other recomputes against 2, a zero delta.
func TestRecordScoreSimultaneousSubmitsBankOneDelta(t *testing.T) {
	env := newTestEnv(t)
	user := "user-a"
	template := seedTour(t, env.DB, user)

	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Crawlers"})
	require.NoError(t, err)
	parThree := template.Stops[0]

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = env.PubGolf.RecordScore(session.ID, parThree.ID, 2, user)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var row models.PubGolfStop
	require.NoError(t, env.DB.Where("stop_id = ?", parThree.ID).First(&row).Error)
	assert.Equal(t, 2, row.Sips)

	prog, err := env.Progression.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, CategoryXP(Birdie), prog.TotalXP)
}

func TestRecordScoreUntrackedStop(t *testing.T) {
	env := newTestEnv(t)
	user := "user-a"
	template := seedTour(t, env.DB, user)

	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Crawlers"})
	require.NoError(t, err)

	// The plain stop has no par/drink and therefore no golf row.
	plain := template.Stops[2]
	_, _, err = env.PubGolf.RecordScore(session.ID, plain.ID, 2, user)
	assert.ErrorIs(t, err, ErrPubGolfStopNotTracked)

	_, _, err = env.PubGolf.RecordScore(session.ID, "no-such-stop", 2, user)
	assert.ErrorIs(t, err, ErrPubGolfStopNotTracked)
}

func TestRecordScoreHoleInOneAchievement(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.Achievements.SeedRules())

	user := "user-a"
	template := seedTour(t, env.DB, user)
	session, err := env.Sessions.StartSession(template.ID, user, false, TeamInfo{Name: "Crawlers"})
	require.NoError(t, err)

	_, _, err = env.PubGolf.RecordScore(session.ID, template.Stops[0].ID, 1, user)
	require.NoError(t, err)

	var rec models.UnlockRecord
	require.NoError(t, env.DB.
		Where("user_id = ? AND achievement_rule_id = ?", user, "ach-hole-in-one").
		First(&rec).Error)
}
