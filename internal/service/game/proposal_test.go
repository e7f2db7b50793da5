package game

import (
	"errors"
	"testing"
)

func allActive(string) bool { return true }

func TestProposalManager_RotatesAndWraps(t *testing.T) {
	pm := NewProposalManager([]string{"a", "b", "c"})

	if pm.Current() != "a" {
		t.Fatalf("first proposer should be a, got %s", pm.Current())
	}

	for _, want := range []string{"b", "c", "a", "b"} {
		if got := pm.NextProposer(allActive); got != want {
			t.Fatalf("want proposer %s, got %s", want, got)
		}
	}
}

func TestProposalManager_SkipsInactive(t *testing.T) {
	pm := NewProposalManager([]string{"a", "b", "c", "d"})
	inactive := map[string]bool{"b": true, "c": true}
	active := func(id string) bool { return !inactive[id] }

	if got := pm.NextProposer(active); got != "d" {
		t.Fatalf("want d after skipping inactive players, got %s", got)
	}

	none := func(string) bool { return false }
	if got := pm.NextProposer(none); got != "d" {
		t.Fatalf("proposer should stay when nobody is active, got %s", got)
	}
}

func TestProposalManager_SubmitTeamValidation(t *testing.T) {
	pm := NewProposalManager([]string{"a", "b", "c", "d", "e"})
	active := func(id string) bool { return id != "e" }

	cases := []struct {
		name     string
		proposer string
		nominees []string
		want     error
	}{
		{"not current proposer", "b", []string{"a", "b"}, ErrNotCurrentProposer},
		{"too small", "a", []string{"a"}, ErrWrongTeamSize},
		{"too large", "a", []string{"a", "b", "c"}, ErrWrongTeamSize},
		{"duplicate", "a", []string{"b", "b"}, ErrDuplicateNominee},
		{"unknown", "a", []string{"a", "z"}, ErrIneligibleNominee},
		{"inactive", "a", []string{"a", "e"}, ErrIneligibleNominee},
	}

	for _, tc := range cases {
		_, err := pm.SubmitTeam(tc.proposer, tc.nominees, 2, active)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidationError(err) {
			t.Fatalf("%s: error should be a validation error", tc.name)
		}
	}

	attempt, err := pm.SubmitTeam("a", []string{"c", "d"}, 2, active)
	if err != nil {
		t.Fatalf("valid team rejected: %v", err)
	}
	if attempt.Proposer != "a" || attempt.Outcome != VotePending || len(attempt.Team) != 2 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if pm.Current() != "a" {
		t.Fatalf("submitting a team should not rotate the proposer")
	}
}

func TestProposalManager_Pass(t *testing.T) {
	pm := NewProposalManager([]string{"a", "b", "c"})

	if _, err := pm.Pass("b", allActive); !errors.Is(err, ErrNotCurrentProposer) {
		t.Fatalf("only the current proposer can pass, got %v", err)
	}

	next, err := pm.Pass("a", allActive)
	if err != nil || next != "b" {
		t.Fatalf("pass should hand over to b, got %q (%v)", next, err)
	}
}
