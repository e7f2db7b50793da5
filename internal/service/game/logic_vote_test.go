package game

import (
	"errors"
	"testing"
)

func newVotingContext(ids ...string) *GameContext {
	ctx := newGameContext("g1", DefaultRules(), NewRand(1))
	ctx.Phase = PhaseVoting
	for _, id := range ids {
		ctx.Players[id] = &Player{ID: id, Name: id, Faction: FactionMajority, Active: true}
		ctx.Roster = append(ctx.Roster, id)
	}
	ctx.Proposals = NewProposalManager(ids)
	ctx.Round = &Round{Index: 1, TeamSize: 2, Threshold: 1}
	ctx.Rounds = append(ctx.Rounds, ctx.Round)
	ctx.Round.Attempts = append(ctx.Round.Attempts, &ProposalAttempt{
		Proposer: ids[0],
		Team:     ids[:2],
		Tally:    NewVoteTally(ids),
		Outcome:  VotePending,
	})
	return ctx
}

func TestVoteStageHandler_PreventsDuplicateVotes(t *testing.T) {
	ctx := newVotingContext("player1", "player2", "player3")

	vsh := NewVoteStageHandler()
	vsh.SetOnSwitch(func(Phase, string) {
		t.Fatalf("vote should not resolve before everyone voted")
	})

	if err := vsh.OnHandle(ctx, Event{Kind: EV_VOTE, PlayerID: "player1", Approve: true}); err != nil {
		t.Fatalf("first vote should succeed, got: %v", err)
	}

	tally := ctx.Round.CurrentAttempt().Tally
	if !tally.HasVoted("player1") {
		t.Fatalf("vote not recorded")
	}

	err := vsh.OnHandle(ctx, Event{Kind: EV_VOTE, PlayerID: "player1", Approve: false})
	if !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("duplicate vote should be rejected with ErrDuplicateVote, got %v", err)
	}

	if approvals, rejections := tally.Counts(); approvals != 1 || rejections != 0 {
		t.Fatalf("duplicate vote mutated the tally, got approvals=%d rejections=%d", approvals, rejections)
	}
}

func TestVoteStageHandler_LastVoteSettlesAttempt(t *testing.T) {
	ctx := newVotingContext("player1", "player2", "player3")

	var switched []Phase
	vsh := NewVoteStageHandler()
	vsh.SetOnSwitch(func(next Phase, _ string) {
		switched = append(switched, next)
	})

	votes := map[string]bool{"player1": true, "player2": true, "player3": false}
	for _, id := range []string{"player1", "player2", "player3"} {
		if err := vsh.OnHandle(ctx, Event{Kind: EV_VOTE, PlayerID: id, Approve: votes[id]}); err != nil {
			t.Fatalf("vote by %s failed: %v", id, err)
		}
	}

	if len(switched) != 1 || switched[0] != PhaseMissionInProgress {
		t.Fatalf("want a single switch to MissionInProgress, got %v", switched)
	}
	if got := ctx.Round.CurrentAttempt().Outcome; got != VoteApproved {
		t.Fatalf("want attempt outcome Approved, got %s", got)
	}
	if ctx.Round.Mission == nil {
		t.Fatalf("approved attempt should create a mission")
	}
	if got := ctx.Proposals.Current(); got != "player2" {
		t.Fatalf("proposer should rotate after resolution, got %s", got)
	}
}

func TestVoteStageHandler_RejectsWrongEvent(t *testing.T) {
	ctx := newVotingContext("player1", "player2", "player3")

	vsh := NewVoteStageHandler()
	vsh.SetOnSwitch(func(Phase, string) {})

	err := vsh.OnHandle(ctx, Event{Kind: EV_PROPOSE, PlayerID: "player1", Nominees: []string{"player1", "player2"}})
	if !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("propose during voting should fail with ErrWrongPhase, got %v", err)
	}
	if len(ctx.Round.Attempts) != 1 {
		t.Fatalf("rejected event should not add an attempt")
	}
}
