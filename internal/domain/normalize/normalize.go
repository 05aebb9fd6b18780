// Package normalize projects raw onboarding submissions into the
// recognized parsed-data shape.
package normalize

import (
	"github.com/okian/intake/internal/domain/model"
)

// Normalize copies only the recognized fields out of a raw submission.
// Absent top-level sections are omitted rather than defaulted; a flags
// key that is not a list normalizes to an empty list. Anything else in
// the payload is dropped, never rejected.
func Normalize(raw map[string]any) model.ParsedData {
	var parsed model.ParsedData

	if section, ok := asObject(raw["personalInfo"]); ok {
		info := model.PersonalInfo{
			Age:        asInt(section["age"]),
			Income:     asFloat(section["income"]),
			Employment: asString(section["employment"]),
			Education:  asString(section["education"]),
		}
		parsed.PersonalInfo = &info
	}

	if section, ok := asObject(raw["preferences"]); ok {
		prefs := model.Preferences{
			RiskTolerance:   asString(section["riskTolerance"]),
			InvestmentGoals: asStringList(section["investmentGoals"]),
			TimeHorizon:     asString(section["timeHorizon"]),
		}
		parsed.Preferences = &prefs
	}

	if flags, present := raw["flags"]; present {
		if list := asStringList(flags); list != nil {
			parsed.Flags = list
		} else {
			parsed.Flags = []string{}
		}
	}

	return parsed
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asString(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

// asInt accepts both native ints and JSON-decoded float64 values,
// truncating the latter.
func asInt(v any) *int {
	switch n := v.(type) {
	case int:
		return &n
	case float64:
		i := int(n)
		return &i
	}
	return nil
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

// asStringList converts a list value to its string elements, dropping
// non-string members. Returns nil when the value is not a list at all.
func asStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
