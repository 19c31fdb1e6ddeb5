// Package hunt holds the treasure hunt domain: locations, teams, the
// per-team path generator and the team progress rules.
// It has no dependencies outside the standard library.
package hunt

import "time"

// Text is a bilingual display string.
type Text struct {
	EN string `json:"en"`
	ES string `json:"es"`
}

// In returns the text for lang, falling back to English.
func (t Text) In(lang string) string {
	if lang == "es" && t.ES != "" {
		return t.ES
	}
	return t.EN
}

// HintsPerLocation is the number of progressive hints a location carries.
const HintsPerLocation = 3

type Session struct {
	ID        string
	Name      string
	Keyword   string
	Status    SessionStatus
	CreatedAt time.Time
}

type SessionStatus string

const (
	SessionStatusDraft  SessionStatus = "draft"
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

type Location struct {
	ID         string
	SessionID  string
	Code       string
	Name       Text
	Riddle     Text
	Hints      [HintsPerLocation]Text
	Lat        *float64
	Lng        *float64
	IsStart    bool
	IsEnd      bool
	OrderIndex int
	CreatedAt  time.Time
}

// HasGPS reports whether both coordinates are set.
func (l Location) HasGPS() bool {
	return l.Lat != nil && l.Lng != nil
}

type Team struct {
	ID             string
	SessionID      string
	Name           string
	CurrentStage   int
	HintsUsed      int
	LastHintAt     *time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	GPSHintEnabled bool
	CreatedAt      time.Time
}

type Player struct {
	ID        string
	SessionID string
	TeamID    string
	Name      string
	Email     string
	CreatedAt time.Time
}

// PathStep is one stored stage of a team's path.
type PathStep struct {
	TeamID     string
	LocationID string
	StageOrder int
}
