package game

import (
	"errors"
	"testing"
)

func TestMission_SabotageThreshold(t *testing.T) {
	cases := []struct {
		name      string
		threshold int
		sabotages int
		want      MissionOutcome
	}{
		{"no sabotage", 1, 0, OutcomeSuccess},
		{"single sabotage", 1, 1, OutcomeSabotaged},
		{"below elevated threshold", 2, 1, OutcomeSuccess},
		{"meets elevated threshold", 2, 2, OutcomeSabotaged},
	}

	for _, tc := range cases {
		team := []string{"a", "b", "c", "d"}
		m := NewMission(team, tc.threshold)

		for i, id := range team {
			action := ActionCooperate
			if i < tc.sabotages {
				action = ActionSabotage
			}
			if err := m.SubmitAction(id, FactionMinority, action); err != nil {
				t.Fatalf("%s: action by %s failed: %v", tc.name, id, err)
			}
		}

		outcome, sabotages, err := m.Resolve()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if outcome != tc.want || sabotages != tc.sabotages {
			t.Fatalf("%s: want %s with %d sabotages, got %s with %d", tc.name, tc.want, tc.sabotages, outcome, sabotages)
		}
	}
}

func TestMission_MajoritySabotageCountsAsCooperate(t *testing.T) {
	m := NewMission([]string{"a", "b"}, 1)

	if err := m.SubmitAction("a", FactionMajority, ActionSabotage); err != nil {
		t.Fatalf("majority sabotage should be accepted silently, got %v", err)
	}
	if err := m.SubmitAction("b", FactionMajority, ActionSabotage); err != nil {
		t.Fatalf("majority sabotage should be accepted silently, got %v", err)
	}

	if a, _ := m.ActionOf("a"); a != ActionCooperate {
		t.Fatalf("majority action should be recorded as cooperate, got %s", a)
	}

	outcome, sabotages, err := m.Resolve()
	if err != nil || outcome != OutcomeSuccess || sabotages != 0 {
		t.Fatalf("all-majority team must succeed, got %s/%d/%v", outcome, sabotages, err)
	}
}

func TestMission_Errors(t *testing.T) {
	m := NewMission([]string{"a", "b"}, 1)

	if err := m.SubmitAction("z", FactionMinority, ActionSabotage); !errors.Is(err, ErrPlayerNotOnTeam) {
		t.Fatalf("want ErrPlayerNotOnTeam, got %v", err)
	}
	if err := m.SubmitAction("a", FactionMinority, Action("Explode")); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("want ErrInvalidAction, got %v", err)
	}

	if err := m.SubmitAction("a", FactionMinority, ActionSabotage); err != nil {
		t.Fatalf("valid action failed: %v", err)
	}
	if err := m.SubmitAction("a", FactionMinority, ActionCooperate); !errors.Is(err, ErrDuplicateAction) {
		t.Fatalf("want ErrDuplicateAction, got %v", err)
	}

	_, _, err := m.Resolve()
	if !errors.Is(err, ErrMissionIncomplete) || !IsStateError(err) {
		t.Fatalf("want ErrMissionIncomplete state error, got %v", err)
	}

	if out := m.Outstanding(); len(out) != 1 || out[0] != "b" {
		t.Fatalf("want b outstanding, got %v", out)
	}
}
