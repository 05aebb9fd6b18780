// Package model contains domain models passed between layers.
package model

import "time"

// PersonalInfo holds the recognized personal attributes of a submission.
type PersonalInfo struct {
	Age        *int     `json:"age,omitempty"`
	Income     *float64 `json:"income,omitempty"`
	Employment *string  `json:"employment,omitempty"`
	Education  *string  `json:"education,omitempty"`
}

// Preferences holds the recognized investment preferences of a submission.
type Preferences struct {
	RiskTolerance   *string  `json:"riskTolerance,omitempty"`
	InvestmentGoals []string `json:"investmentGoals,omitempty"`
	TimeHorizon     *string  `json:"timeHorizon,omitempty"`
}

// ParsedData is the normalized projection of a raw submission. Sections
// absent from the input stay nil; unrecognized fields are dropped.
type ParsedData struct {
	PersonalInfo *PersonalInfo `json:"personalInfo,omitempty"`
	Preferences  *Preferences  `json:"preferences,omitempty"`
	Flags        []string      `json:"flags,omitempty"`
}

// Session is the durable record of one onboarding submission.
// Score and ScoreExplanation are set together after a successful scoring
// call and are never overwritten once set.
type Session struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	CreatedAt        time.Time      `json:"createdAt"`
	RawInput         map[string]any `json:"rawInput"`
	ParsedData       ParsedData     `json:"parsedData"`
	Score            *int           `json:"score"`
	ScoreExplanation *string        `json:"scoreExplanation"`
	SourceIP         *string        `json:"sourceIp"`
	UserAgent        *string        `json:"userAgent"`
}

// Scored reports whether a score has been attached to the session.
func (s Session) Scored() bool {
	return s.Score != nil
}

// Summary projects the session into its recency cache entry.
// Only meaningful for scored sessions.
func (s Session) Summary() RecentSummary {
	score := 0
	if s.Score != nil {
		score = *s.Score
	}
	return RecentSummary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Score:     score,
	}
}

// RecentSummary is the lightweight projection kept in the recency cache.
type RecentSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Score     int       `json:"score"`
}
