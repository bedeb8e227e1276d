package services

import (
	"testing"

	"tour-session-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory database per test. A single
// connection keeps every goroutine on the same :memory: instance.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.TourTemplate{},
		&models.TourStop{},
		&models.TourChallenge{},
		&models.Session{},
		&models.Team{},
		&models.ChallengeProgress{},
		&models.PubGolfStop{},
		&models.BingoCard{},
		&models.AchievementRule{},
		&models.UnlockRecord{},
		&models.UserProgress{},
		&models.PlayHistoryRecord{},
	))
	return db
}

// testEnv bundles the full service graph over one test database.
type testEnv struct {
	DB           *gorm.DB
	Progression  *ProgressionService
	Achievements *AchievementService
	Teams        *TeamService
	Sessions     *SessionService
	Scoring      *ScoringService
	PubGolf      *PubGolfService
	Lifecycle    *LifecycleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)

	progression := NewProgressionService(db)
	achievements := NewAchievementService(db, progression)
	teams := NewTeamService(db, achievements)

	return &testEnv{
		DB:           db,
		Progression:  progression,
		Achievements: achievements,
		Teams:        teams,
		Sessions:     NewSessionService(db, teams, nil),
		Scoring:      NewScoringService(db, achievements),
		PubGolf:      NewPubGolfService(db, achievements),
		Lifecycle:    NewLifecycleService(db, achievements),
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// seedTour writes a template owned by authorID: two pub-golf stops
// (par 3 and par 4), one plain stop, a stop-scoped challenge per stop
// and one tour-wide bingo-tagged challenge, bingo + pub-golf modes.
func seedTour(t *testing.T, db *gorm.DB, authorID string) *models.TourTemplate {
	t.Helper()

	template := models.TourTemplate{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Name:     "Old Town Crawl",
		City:     "Utrecht",
		Modes:    []models.GameMode{models.ModeClassic, models.ModePubGolf, models.ModeBingo},
	}
	require.NoError(t, db.Create(&template).Error)

	stops := []models.TourStop{
		{ID: uuid.NewString(), TourTemplateID: template.ID, Name: "The Anchor", SortOrder: 0, PubGolfPar: intPtr(3), PubGolfDrink: strPtr("lager")},
		{ID: uuid.NewString(), TourTemplateID: template.ID, Name: "Brew Hall", SortOrder: 1, PubGolfPar: intPtr(4), PubGolfDrink: strPtr("stout")},
		{ID: uuid.NewString(), TourTemplateID: template.ID, Name: "Town Square", SortOrder: 2},
	}
	for i := range stops {
		require.NoError(t, db.Create(&stops[i]).Error)
	}

	challenges := []models.TourChallenge{
		{ID: uuid.NewString(), TourTemplateID: template.ID, StopID: &stops[0].ID, Type: models.ChallengeTrivia, Name: "Pub quiz", Points: 50},
		{ID: uuid.NewString(), TourTemplateID: template.ID, StopID: &stops[1].ID, Type: models.ChallengePicture, Name: "Group photo", Points: 30},
		{ID: uuid.NewString(), TourTemplateID: template.ID, Type: models.ChallengeDare, Name: "Sing a song", Points: 70, BingoRow: intPtr(0), BingoCol: intPtr(1)},
	}
	for i := range challenges {
		require.NoError(t, db.Create(&challenges[i]).Error)
	}

	template.Stops = stops
	template.Challenges = challenges
	return &template
}
