package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"mindnight-be/internal/service"
	"mindnight-be/internal/service/dto"
	"mindnight-be/internal/service/game"
)

func wrap(t *testing.T, reqType string, data any) dto.RequestWrapper {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return dto.RequestWrapper{ReqType: reqType, Data: raw}
}

func TestHandleRequest_RoutesToGameService(t *testing.T) {
	svc := service.NewGameService(service.Options{})
	defer svc.Close()

	gameID, err := svc.CreateGame("default", nil)
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, _, err := svc.Join(gameID, fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}
	if _, err := svc.Start(gameID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, _ := svc.PublicState(gameID)
	proposer := view.Proposer

	team := make([]string, 0, view.RequiredSize)
	for _, p := range view.Players[:view.RequiredSize] {
		team = append(team, p.ID)
	}

	req := wrap(t, dto.REQ_PROPOSE_TEAM, dto.ProposeTeamRequest{Nominees: team})
	if err := handleRequest(svc, gameID, proposer, req); err != nil {
		t.Fatalf("propose through websocket failed: %v", err)
	}

	vote := wrap(t, dto.REQ_CAST_VOTE, dto.CastVoteRequest{Approve: true})
	if err := handleRequest(svc, gameID, proposer, vote); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := handleRequest(svc, gameID, proposer, vote); !errors.Is(err, game.ErrDuplicateVote) {
		t.Fatalf("want ErrDuplicateVote, got %v", err)
	}

	unknown := dto.RequestWrapper{ReqType: "Dance"}
	if err := handleRequest(svc, gameID, proposer, unknown); !errors.Is(err, errUnknownRequest) {
		t.Fatalf("want errUnknownRequest, got %v", err)
	}

	abandon := wrap(t, dto.REQ_ABANDON, dto.AbandonRequest{Reason: "bored"})
	if err := handleRequest(svc, gameID, proposer, abandon); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}

	if view, _ := svc.PublicState(gameID); view.Phase != game.PhaseAborted || view.AbortReason != "bored" {
		t.Fatalf("game should be aborted, got %s", view.Phase)
	}
}
