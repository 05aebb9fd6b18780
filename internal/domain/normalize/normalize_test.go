package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/intake/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func decode(t *testing.T, payload string) map[string]any {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return raw
}

func TestNormalizeRecognizedFields(t *testing.T) {
	Convey("Given a full submission", t, func() {
		raw := decode(t, `{
			"personalInfo": {"age": 30, "income": 75000, "employment": "full-time", "education": "bachelor"},
			"preferences": {"riskTolerance": "moderate", "investmentGoals": ["retirement", "growth"], "timeHorizon": "long"},
			"flags": ["pep"]
		}`)

		Convey("When normalizing", func() {
			parsed := normalize.Normalize(raw)

			Convey("Then personal info is projected", func() {
				So(parsed.PersonalInfo, ShouldNotBeNil)
				So(*parsed.PersonalInfo.Age, ShouldEqual, 30)
				So(*parsed.PersonalInfo.Income, ShouldEqual, 75000)
				So(*parsed.PersonalInfo.Employment, ShouldEqual, "full-time")
				So(*parsed.PersonalInfo.Education, ShouldEqual, "bachelor")
			})

			Convey("And preferences are projected", func() {
				So(parsed.Preferences, ShouldNotBeNil)
				So(*parsed.Preferences.RiskTolerance, ShouldEqual, "moderate")
				So(parsed.Preferences.InvestmentGoals, ShouldResemble, []string{"retirement", "growth"})
				So(*parsed.Preferences.TimeHorizon, ShouldEqual, "long")
			})

			Convey("And flags are projected", func() {
				So(parsed.Flags, ShouldResemble, []string{"pep"})
			})
		})
	})
}

func TestNormalizeDropsUnrecognized(t *testing.T) {
	Convey("Given a submission with extra fields", t, func() {
		raw := decode(t, `{
			"personalInfo": {"age": 41, "favoriteColor": "green"},
			"preferences": {"riskTolerance": "low", "newsletter": true},
			"petName": "rex"
		}`)

		Convey("When normalizing", func() {
			parsed := normalize.Normalize(raw)

			Convey("Then only recognized fields survive", func() {
				So(*parsed.PersonalInfo.Age, ShouldEqual, 41)
				So(parsed.PersonalInfo.Income, ShouldBeNil)
				So(*parsed.Preferences.RiskTolerance, ShouldEqual, "low")
				So(parsed.Preferences.InvestmentGoals, ShouldBeNil)
			})
		})
	})
}

func TestNormalizeAbsentSections(t *testing.T) {
	Convey("Given a submission without any recognized section", t, func() {
		raw := decode(t, `{"something": "else"}`)

		Convey("When normalizing", func() {
			parsed := normalize.Normalize(raw)

			Convey("Then sections stay omitted, not defaulted", func() {
				So(parsed.PersonalInfo, ShouldBeNil)
				So(parsed.Preferences, ShouldBeNil)
				So(parsed.Flags, ShouldBeNil)
			})
		})
	})

	Convey("Given a section that is not an object", t, func() {
		raw := decode(t, `{"personalInfo": "not-an-object"}`)

		Convey("When normalizing", func() {
			parsed := normalize.Normalize(raw)

			Convey("Then the section is treated as absent", func() {
				So(parsed.PersonalInfo, ShouldBeNil)
			})
		})
	})
}

func TestNormalizeFlags(t *testing.T) {
	Convey("Given flags variants", t, func() {
		Convey("When flags is an empty list", func() {
			parsed := normalize.Normalize(decode(t, `{"flags": []}`))

			Convey("Then flags is present and empty", func() {
				So(parsed.Flags, ShouldNotBeNil)
				So(parsed.Flags, ShouldBeEmpty)
			})
		})

		Convey("When flags is not a list", func() {
			parsed := normalize.Normalize(decode(t, `{"flags": "oops"}`))

			Convey("Then flags defaults to an empty list", func() {
				So(parsed.Flags, ShouldNotBeNil)
				So(parsed.Flags, ShouldBeEmpty)
			})
		})

		Convey("When flags mixes types", func() {
			parsed := normalize.Normalize(decode(t, `{"flags": ["a", 7, "b"]}`))

			Convey("Then only string members survive", func() {
				So(parsed.Flags, ShouldResemble, []string{"a", "b"})
			})
		})

		Convey("When flags is absent", func() {
			parsed := normalize.Normalize(decode(t, `{}`))

			Convey("Then flags stays nil", func() {
				So(parsed.Flags, ShouldBeNil)
			})
		})
	})
}
