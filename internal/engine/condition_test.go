package engine

import "testing"

func TestEvaluateConditionBasics(t *testing.T) {
	profile := map[string]any{
		"married": "yes",
		"age":     float64(65),
		"household": map[string]any{
			"has_minor_children": true,
		},
	}
	answers := map[string]AnswerValue{
		"q-will": AnswerPartial,
	}

	cases := []struct {
		expression string
		expected   bool
	}{
		{"", true},
		{"always", true},
		{"profile.married == 'yes'", true},
		{"profile.married != 'yes'", false},
		{"profile.age == 65", true},
		{"profile.age == 65.0", true},
		{"profile.household.has_minor_children == true", true},
		{"answers.q-will in ['yes', 'partial']", false}, // hyphenated ids are not identifiers
		{"answers.q_missing == 'yes'", false},
		{"profile.married == 'yes' and profile.age == 65", true},
		{"profile.married == 'no' or profile.age == 65", true},
		{"profile.married == 'no' and profile.age == 65 or profile.married == 'yes'", true},
		{"(profile.married == 'no' or profile.married == 'yes') and profile.age == 65", true},
	}
	for _, tc := range cases {
		if got := EvaluateCondition(tc.expression, profile, answers); got != tc.expected {
			t.Fatalf("%q: got %v, want %v", tc.expression, got, tc.expected)
		}
	}
}

func TestEvaluateConditionAnswerLookup(t *testing.T) {
	answers := map[string]AnswerValue{"q_will": AnswerPartial}
	if !EvaluateCondition("answers.q_will in ['yes', 'partial']", nil, answers) {
		t.Fatal("answer membership should match")
	}
	if EvaluateCondition("answers.q_will == 'yes'", nil, answers) {
		t.Fatal("partial should not equal yes")
	}
}

func TestEvaluateConditionFailsClosed(t *testing.T) {
	malformed := []string{
		"profile.married ==",
		"== 'yes'",
		"profile.married = 'yes'",
		"profile.married == 'yes' and",
		"(profile.married == 'yes'",
		"@@@",
		"profile.married in 'yes'",
		"and == or",
	}
	for _, expression := range malformed {
		if EvaluateCondition(expression, map[string]any{"married": "yes"}, nil) {
			t.Fatalf("%q should fail closed to false", expression)
		}
	}
}

func TestEvaluateConditionUnknownPath(t *testing.T) {
	if EvaluateCondition("profile.missing == 'yes'", map[string]any{}, nil) {
		t.Fatal("unknown path must not satisfy equality with a non-empty literal")
	}
	if !EvaluateCondition("profile.missing != 'yes'", map[string]any{}, nil) {
		t.Fatal("unknown path should satisfy inequality")
	}
}
