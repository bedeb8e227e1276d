package workers

import (
	"log"
	"time"

	"tour-session-system/models"
	"tour-session-system/services"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// SessionSweeper abandons WAITING sessions nobody ever started. The
// engine itself never expires anything — a stale lobby just sits there
// until this job (or a player) cleans it up, so running the sweeper is
// optional and the core semantics hold without it.
type SessionSweeper struct {
	DB        *gorm.DB
	Lifecycle *services.LifecycleService
	TTL       time.Duration
}

func NewSessionSweeper(db *gorm.DB, lifecycle *services.LifecycleService, ttl time.Duration) *SessionSweeper {
	return &SessionSweeper{DB: db, Lifecycle: lifecycle, TTL: ttl}
}

// Start schedules the sweep every 10 minutes.
func (w *SessionSweeper) Start() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(w.sweep),
	)
	log.Printf("🧹 Session sweeper running (TTL %s)", w.TTL)
}

func (w *SessionSweeper) sweep() {
	cutoff := time.Now().Add(-w.TTL)

	var stale []models.Session
	err := w.DB.Preload("Teams").
		Where("status = ? AND created_at < ?", models.SessionWaiting, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("[Sweeper] DB error: %v", err)
		return
	}

	for _, session := range stale {
		// Abandon team by team so each player still gets a play-history
		// record; the last exit deletes the session itself.
		for _, team := range session.Teams {
			if err := w.Lifecycle.Abandon(session.ID, team.UserID); err != nil {
				log.Printf("[Sweeper] Failed to abandon team %s in session %s: %v", team.ID, session.ID, err)
			}
		}
		log.Printf("🧹 Swept stale waiting session %s (%d team(s))", session.ID, len(session.Teams))
	}
}
