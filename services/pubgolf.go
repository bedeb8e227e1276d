package services

import (
	"errors"
	"fmt"
	"log"

	"tour-session-system/models"

	"gorm.io/gorm"
)

// PubGolfCategory is the golf-style name for a sip count vs par.
type PubGolfCategory string

const (
	HoleInOne       PubGolfCategory = "hole_in_one"
	Albatross       PubGolfCategory = "albatross"
	Eagle           PubGolfCategory = "eagle"
	Birdie          PubGolfCategory = "birdie"
	Par             PubGolfCategory = "par"
	Bogey           PubGolfCategory = "bogey"
	DoubleBogey     PubGolfCategory = "double_bogey"
	TripleBogeyPlus PubGolfCategory = "triple_bogey_plus"
)

// pubGolfXP is the XP tier per category. Order mirrors the scoring
// table: one sip beats everything, then fewer sips under par pay more.
var pubGolfXP = map[PubGolfCategory]int64{
	HoleInOne:       100,
	Albatross:       80,
	Eagle:           60,
	Birdie:          40,
	Par:             25,
	Bogey:           15,
	DoubleBogey:     10,
	TripleBogeyPlus: 5,
}

// Categorize maps (par, sips) to a category. sips == 1 wins outright,
// before any diff comparison.
func Categorize(par, sips int) PubGolfCategory {
	if sips == 1 {
		return HoleInOne
	}
	diff := sips - par
	switch {
	case diff <= -3:
		return Albatross
	case diff == -2:
		return Eagle
	case diff == -1:
		return Birdie
	case diff == 0:
		return Par
	case diff == 1:
		return Bogey
	case diff == 2:
		return DoubleBogey
	default:
		return TripleBogeyPlus
	}
}

// CategoryXP returns the XP tier for a category.
func CategoryXP(cat PubGolfCategory) int64 {
	return pubGolfXP[cat]
}

// scoreXP values a sip count: 0 sips means unplayed and is worth
// nothing, anything else is worth its category tier.
func scoreXP(par, sips int) int64 {
	if sips <= 0 {
		return 0
	}
	return CategoryXP(Categorize(par, sips))
}

type PubGolfService struct {
	DB           *gorm.DB
	Achievements *AchievementService
}

func NewPubGolfService(db *gorm.DB, achievements *AchievementService) *PubGolfService {
	return &PubGolfService{DB: db, Achievements: achievements}
}

// RecordScore saves a sip count for the caller's team at one stop.
// Scores stay editable after entry, so the user's XP moves by exactly
// newXP − oldXP: re-saving the same value is a no-op, and editing back
// to an earlier value cancels the net change.
func (s *PubGolfService) RecordScore(sessionID, stopID string, sips int, userID string) (*models.PubGolfStop, PubGolfCategory, error) {
	team, err := resolveTeam(s.DB, sessionID, userID)
	if err != nil {
		return nil, "", err
	}

	var stop models.TourStop
	if err := s.DB.Where("id = ?", stopID).First(&stop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPubGolfStopNotTracked
		}
		return nil, "", err
	}
	if !stop.IsPubGolf() {
		return nil, "", ErrPubGolfStopNotTracked
	}
	par := *stop.PubGolfPar

	cat := Categorize(par, sips)

	// The XP delta is only valid against the sip value it was computed
	// from, so the write claims the old→new transition: the UPDATE is
	// guarded on the old value. RowsAffected == 0 means another submit
	// moved the row first; re-read and recompute against its value.
	var row models.PubGolfStop
	leveled := false
	for attempt := 0; ; attempt++ {
		if err := s.DB.Where("team_id = ? AND stop_id = ?", team.ID, stopID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Rows are materialized at team creation; a miss means the
				// stop was never pub-golf-eligible for this team.
				return nil, "", ErrPubGolfStopNotTracked
			}
			return nil, "", err
		}

		oldSips := row.Sips
		xpDiff := scoreXP(par, sips) - scoreXP(par, oldSips)

		claimed := false
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.PubGolfStop{}).
				Where("id = ? AND sips = ?", row.ID, oldSips).
				UpdateColumn("sips", sips)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			claimed = true

			if xpDiff != 0 {
				reason := fmt.Sprintf("pub_golf_%s_stop_%s", cat, stopID)
				_, l, err := s.Achievements.Progression.AwardXPIn(tx, userID, xpDiff, reason)
				if err != nil {
					return err
				}
				leveled = l
			}
			return nil
		})
		if err != nil {
			return nil, "", err
		}
		if claimed {
			row.Sips = sips
			break
		}
		if attempt >= 2 {
			return nil, "", fmt.Errorf("conflicting score edits for stop %s", stopID)
		}
	}

	if leveled {
		if err := s.Achievements.closeLevelRules(userID); err != nil {
			log.Printf("⚠️ level achievement recheck failed for %s: %v", userID, err)
		}
	}

	if sips == 1 {
		if err := s.Achievements.CheckHoleInOnes(userID); err != nil {
			log.Printf("⚠️ hole-in-one achievement check failed for %s: %v", userID, err)
		}
	}

	return &row, cat, nil
}
