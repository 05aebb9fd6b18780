// Package scorerstub is a stand-in for the external scoring engine,
// used in local development and tests. It reimplements the engine's
// deterministic rule set; the service core never depends on these rules.
package scorerstub

import (
	"fmt"
	"strings"

	"github.com/okian/intake/internal/domain/model"
)

// Scoring rule constants.
const (
	baseScore = 50
	minScore  = 0
	maxScore  = 100
)

// Evaluate applies the deterministic rule set to parsed onboarding data:
// a base score, income/employment/age/risk-tolerance bonuses, a flat
// penalty per risk flag, and a final clamp to [0,100].
func Evaluate(parsed model.ParsedData) (int, string) {
	score := baseScore
	var notes []string

	if info := parsed.PersonalInfo; info != nil && info.Income != nil && *info.Income != 0 {
		bonus, note := incomeBonus(*info.Income)
		score += bonus
		notes = append(notes, note)
	} else {
		notes = append(notes, "No income information provided")
	}

	if info := parsed.PersonalInfo; info != nil && info.Employment != nil && *info.Employment != "" {
		switch *info.Employment {
		case "full-time":
			score += 5
			notes = append(notes, "Full-time employment (+5)")
		case "self-employed":
			score += 3
			notes = append(notes, "Self-employed (+3)")
		case "part-time":
			score += 1
			notes = append(notes, "Part-time employment (+1)")
		default:
			notes = append(notes, fmt.Sprintf("Employment status: %s", *info.Employment))
		}
	}

	if info := parsed.PersonalInfo; info != nil && info.Age != nil && *info.Age != 0 {
		age := *info.Age
		switch {
		case age >= 25 && age <= 45:
			score += 5
			notes = append(notes, "Optimal age range (+5)")
		case (age >= 18 && age <= 24) || (age >= 46 && age <= 65):
			score += 2
			notes = append(notes, "Good age range (+2)")
		}
	}

	if prefs := parsed.Preferences; prefs != nil && prefs.RiskTolerance != nil {
		switch *prefs.RiskTolerance {
		case "moderate":
			score += 5
			notes = append(notes, "Moderate risk tolerance (+5)")
		case "low":
			score += 3
			notes = append(notes, "Conservative risk tolerance (+3)")
		case "high":
			score += 2
			notes = append(notes, "Aggressive risk tolerance (+2)")
		}
	}

	if penalty := len(parsed.Flags) * 10; penalty > 0 {
		score -= penalty
		notes = append(notes, fmt.Sprintf("Risk flags penalty (-%d)", penalty))
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}

	explanation := fmt.Sprintf("Score: %d/100. %s", score, strings.Join(notes, "; "))
	return score, explanation
}

func incomeBonus(income float64) (int, string) {
	switch {
	case income >= 100000:
		return 30, "Excellent income (+30)"
	case income >= 75000:
		return 20, "Very good income (+20)"
	case income >= 50000:
		return 10, "Good income (+10)"
	case income >= 30000:
		return 5, "Moderate income (+5)"
	default:
		return 0, "Lower income (no bonus)"
	}
}
