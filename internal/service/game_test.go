package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"mindnight-be/internal/service/game"
)

func newTestService(t *testing.T, timeouts Timeouts) *GameService {
	t.Helper()

	gs := NewGameService(Options{
		Preset:   "default",
		Timeouts: timeouts,
		GameTTL:  time.Hour,
	})
	t.Cleanup(gs.Close)

	return gs
}

func createStartedGame(t *testing.T, gs *GameService, players int) (string, []string) {
	t.Helper()

	seed := uint64(21)
	gameID, err := gs.CreateGame("", &seed)
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}

	ids := make([]string, 0, players)
	for i := 0; i < players; i++ {
		id, _, err := gs.Join(gameID, fmt.Sprintf("player-%d", i+1))
		if err != nil {
			t.Fatalf("join failed: %v", err)
		}
		ids = append(ids, id)
	}

	if _, err := gs.Start(gameID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	return gameID, ids
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestGameService_Registry(t *testing.T) {
	gs := newTestService(t, Timeouts{})

	if _, err := gs.CreateGame("chaos", nil); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("want ErrUnknownPreset, got %v", err)
	}

	if _, err := gs.PublicState("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("want ErrGameNotFound, got %v", err)
	}
	if _, _, err := gs.Join("missing", "alice"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("want ErrGameNotFound on join, got %v", err)
	}

	first, _ := createStartedGame(t, gs, 5)
	second, err := gs.CreateGame("classic", nil)
	if err != nil {
		t.Fatalf("create classic game failed: %v", err)
	}
	if first == second {
		t.Fatalf("game ids should be unique")
	}

	view, err := gs.PublicState(first)
	if err != nil || view.Phase != game.PhaseProposing {
		t.Fatalf("first game should be proposing, got %s (%v)", view.Phase, err)
	}

	view, _ = gs.PublicState(second)
	if view.Phase != game.PhaseLobby || len(view.Players) != 0 {
		t.Fatalf("games should be independent, second game is %s with %d players", view.Phase, len(view.Players))
	}
}

func TestGameService_LeaveInLobbyAndAfterStart(t *testing.T) {
	gs := newTestService(t, Timeouts{})

	gameID, err := gs.CreateGame("", nil)
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}

	id, _, _ := gs.Join(gameID, "alice")
	if _, err := gs.Leave(gameID, id); err != nil {
		t.Fatalf("leave in lobby failed: %v", err)
	}
	if view, _ := gs.PublicState(gameID); len(view.Players) != 0 {
		t.Fatalf("leaving the lobby should remove the player, got %d players", len(view.Players))
	}

	started, ids := createStartedGame(t, gs, 5)
	if _, err := gs.Leave(started, ids[0]); err != nil {
		t.Fatalf("leave after start failed: %v", err)
	}

	view, _ := gs.PublicState(started)
	if len(view.Players) != 5 || view.Players[0].Active {
		t.Fatalf("leaving a started game should only deactivate the player, got %+v", view.Players)
	}
}

func TestGameService_SubscribeReceivesEvents(t *testing.T) {
	gs := newTestService(t, Timeouts{})

	gameID, err := gs.CreateGame("", nil)
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}

	events, unsubscribe, err := gs.Subscribe(gameID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	id, _, _ := gs.Join(gameID, "alice")

	select {
	case ev := <-events:
		if ev.Report.Event != game.EV_JOIN || ev.Report.PlayerID != id || len(ev.State.Players) != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event after join")
	}

	// 被拒绝的请求不产生事件
	if _, err := gs.Start(gameID); err == nil {
		t.Fatalf("starting with one player should fail")
	}
	select {
	case ev := <-events:
		t.Fatalf("rejected request should not broadcast, got %+v", ev)
	default:
	}

	unsubscribe()
	if _, ok := <-events; ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
}

func TestGameService_CleanupRemovesExpiredGames(t *testing.T) {
	gs := newTestService(t, Timeouts{})

	gameID, _ := createStartedGame(t, gs, 5)
	events, _, err := gs.Subscribe(gameID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	gs.cleanup(time.Now(), time.Minute)
	if _, err := gs.PublicState(gameID); err != nil {
		t.Fatalf("active game should survive cleanup, got %v", err)
	}

	gs.cleanup(time.Now().Add(2*time.Hour), time.Minute)
	if _, err := gs.PublicState(gameID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expired game should be removed, got %v", err)
	}

	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatalf("subscribers should see the abort before the channel closes")
		}
		if ev.State.Phase != game.PhaseAborted || ev.State.AbortReason != "expired" {
			t.Fatalf("want an Aborted event with reason expired, got %s (%s)", ev.State.Phase, ev.State.AbortReason)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event after cleanup")
	}

	if _, ok := <-events; ok {
		t.Fatalf("subscribers of a removed game should be closed")
	}
}

func TestGameService_AuthorizeChecksPlayerToken(t *testing.T) {
	gs := newTestService(t, Timeouts{})

	gameID, err := gs.CreateGame("", nil)
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}

	alice, aliceToken, err := gs.Join(gameID, "alice")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	bob, bobToken, _ := gs.Join(gameID, "bob")

	if aliceToken == "" || aliceToken == bobToken {
		t.Fatalf("every player should get a distinct token")
	}

	if err := gs.Authorize(gameID, alice, aliceToken); err != nil {
		t.Fatalf("own token should be accepted, got %v", err)
	}
	for _, token := range []string{bobToken, "", "guess"} {
		if err := gs.Authorize(gameID, alice, token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q should not act for alice, got %v", token, err)
		}
	}
	if err := gs.Authorize(gameID, "ghost", aliceToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown player should be rejected, got %v", err)
	}
	if err := gs.Authorize("missing", alice, aliceToken); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("want ErrGameNotFound, got %v", err)
	}

	// 离开大厅后令牌作废
	if _, err := gs.Leave(gameID, bob); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if err := gs.Authorize(gameID, bob, bobToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("token should be dropped after leaving the lobby, got %v", err)
	}

	view, _ := gs.PublicState(gameID)
	raw, _ := json.Marshal(view)
	private, _ := gs.PrivateState(gameID, alice)
	rawPrivate, _ := json.Marshal(private)
	if strings.Contains(string(raw), aliceToken) || strings.Contains(string(rawPrivate), aliceToken) {
		t.Fatalf("views should never carry player tokens")
	}
}

func TestTimerService_ProposesRandomTeamOnTimeout(t *testing.T) {
	gs := newTestService(t, Timeouts{Propose: 20 * time.Millisecond})

	gameID, _ := createStartedGame(t, gs, 5)

	waitFor(t, "automatic proposal", func() bool {
		view, _ := gs.PublicState(gameID)
		return view.Phase == game.PhaseVoting
	})

	view, _ := gs.PublicState(gameID)
	if len(view.CurrentTeam) != view.RequiredSize {
		t.Fatalf("automatic team should have %d members, got %v", view.RequiredSize, view.CurrentTeam)
	}
}

func TestTimerService_RejectsOnVoteTimeout(t *testing.T) {
	gs := newTestService(t, Timeouts{Vote: 20 * time.Millisecond})

	gameID, ids := createStartedGame(t, gs, 5)

	view, _ := gs.PublicState(gameID)
	team := make([]string, 0, view.RequiredSize)
	for _, p := range view.Players {
		if len(team) < view.RequiredSize {
			team = append(team, p.ID)
		}
	}
	if _, err := gs.Propose(gameID, view.Proposer, team); err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	// 一名玩家赞成，其余玩家超时按反对处理
	if _, err := gs.Vote(gameID, ids[0], true); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	waitFor(t, "vote timeout", func() bool {
		view, _ := gs.PublicState(gameID)
		return view.Phase == game.PhaseProposing && view.Rejections == 1
	})

	view, _ = gs.PublicState(gameID)
	attempt := view.Rounds[0].Attempts[0]
	if len(attempt.Approved) != 1 || len(attempt.Rejected) != 4 {
		t.Fatalf("want 1 approval and 4 timeout rejections, got %+v", attempt)
	}
}

func TestTimerService_CooperatesOnActionTimeout(t *testing.T) {
	gs := newTestService(t, Timeouts{Action: 20 * time.Millisecond})

	gameID, _ := createStartedGame(t, gs, 5)

	view, _ := gs.PublicState(gameID)
	team := make([]string, 0, view.RequiredSize)
	for _, p := range view.Players {
		if len(team) < view.RequiredSize {
			team = append(team, p.ID)
		}
	}
	if _, err := gs.Propose(gameID, view.Proposer, team); err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	for _, p := range view.Players {
		if _, err := gs.Vote(gameID, p.ID, true); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}

	waitFor(t, "mission timeout", func() bool {
		view, _ := gs.PublicState(gameID)
		return len(view.Missions) == 1
	})

	view, _ = gs.PublicState(gameID)
	if m := view.Missions[0]; m.Outcome != game.OutcomeSuccess || m.Sabotages != 0 {
		t.Fatalf("timed out mission should count as cooperation, got %+v", m)
	}
}
