package models

// GameMode toggles optional scoring layers for a tour
type GameMode string

const (
	ModeClassic GameMode = "classic"
	ModePubGolf GameMode = "pub_golf"
	ModeBingo   GameMode = "bingo"
)

// ChallengeType is a presentation-level tag. Scoring is type-agnostic:
// every challenge awards its Points the same way regardless of type.
type ChallengeType string

const (
	ChallengeLocation  ChallengeType = "location"
	ChallengeTrivia    ChallengeType = "trivia"
	ChallengePicture   ChallengeType = "picture"
	ChallengeTrueFalse ChallengeType = "true_false"
	ChallengeDare      ChallengeType = "dare"
	ChallengeRiddle    ChallengeType = "riddle"
)

// TourTemplate is authored content, owned by the authoring service.
// Read-only here: sessions reference it but never mutate it.
type TourTemplate struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	AuthorID    string     `json:"author_id" gorm:"index;not null"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	City        string     `json:"city"`
	Modes       []GameMode `json:"modes" gorm:"serializer:json"`

	Stops      []TourStop      `json:"stops,omitempty" gorm:"foreignKey:TourTemplateID"`
	Challenges []TourChallenge `json:"challenges,omitempty" gorm:"foreignKey:TourTemplateID"`

	Timestamps
}

// TourStop is one ordered location on a tour. A stop takes part in pub
// golf only when both PubGolfPar and PubGolfDrink are set.
type TourStop struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	TourTemplateID string  `json:"tour_template_id" gorm:"index;not null"`
	Name           string  `json:"name" gorm:"not null"`
	SortOrder      int     `json:"sort_order" gorm:"column:sort_order;default:0"`
	PubGolfPar     *int    `json:"pub_golf_par,omitempty"`
	PubGolfDrink   *string `json:"pub_golf_drink,omitempty"`
}

// IsPubGolf reports whether the stop is scored in pub-golf mode.
func (s *TourStop) IsPubGolf() bool {
	return s.PubGolfPar != nil && s.PubGolfDrink != nil
}

// TourChallenge is a scored task, either tour-wide (StopID nil) or tied
// to one stop. BingoRow/BingoCol place it on the bingo grid when set.
type TourChallenge struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	TourTemplateID string        `json:"tour_template_id" gorm:"index;not null"`
	StopID         *string       `json:"stop_id,omitempty" gorm:"index"`
	Type           ChallengeType `json:"type" gorm:"type:varchar(16);not null"`
	Name           string        `json:"name" gorm:"not null"`
	Description    string        `json:"description"`
	Points         int64         `json:"points" gorm:"default:0"`
	BingoRow       *int          `json:"bingo_row,omitempty"`
	BingoCol       *int          `json:"bingo_col,omitempty"`
}

// OnBingoGrid reports whether the challenge occupies a bingo cell.
func (c *TourChallenge) OnBingoGrid() bool {
	return c.BingoRow != nil && c.BingoCol != nil
}

// HasMode checks the template's mode list.
func (t *TourTemplate) HasMode(mode GameMode) bool {
	for _, m := range t.Modes {
		if m == mode {
			return true
		}
	}
	return false
}
