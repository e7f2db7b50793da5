package http

import (
	"errors"

	"mindnight-be/internal/service"
	"mindnight-be/internal/service/dto"
	"mindnight-be/internal/service/game"
	"mindnight-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return iris.StatusForbidden
	case errors.Is(err, service.ErrUnknownPreset), game.IsValidationError(err):
		return iris.StatusBadRequest
	case game.IsStateError(err):
		return iris.StatusConflict
	default:
		return iris.StatusInternalServerError
	}
}

func writeError(ctx iris.Context, err error) {
	status := statusOf(err)
	if status == iris.StatusInternalServerError {
		zap.L().Error("处理请求失败", zap.String("path", ctx.Path()), zap.Error(err))
	}

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"error": err.Error(),
	})
}

func readJSON(ctx iris.Context, out any) bool {
	if err := ctx.ReadJSON(out); err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"error": "请求参数无效",
		})
		return false
	}
	return true
}

// PlayerTokenHeader 携带加入游戏时拿到的玩家令牌
const PlayerTokenHeader = "X-Player-Token"

func authorize(ctx iris.Context, appState *state.AppState, gameID, playerID string) bool {
	err := appState.GameSvc.Authorize(gameID, playerID, ctx.GetHeader(PlayerTokenHeader))
	if err != nil {
		writeError(ctx, err)
		return false
	}
	return true
}

func writeReport(ctx iris.Context, report game.Report, err error) {
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(report)
}

func CreateGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateGameRequest

		// 请求体可以为空
		if ctx.GetContentLength() > 0 && !readJSON(ctx, &req) {
			return
		}

		gameID, err := appState.GameSvc.CreateGame(req.Preset, req.Seed)
		if err != nil {
			writeError(ctx, err)
			return
		}

		preset := req.Preset
		if preset == "" {
			preset = appState.Cfg.RulesPreset
		}

		ctx.JSON(dto.CreateGameResponse{
			GameID: gameID,
			Preset: preset,
		})
	}
}

func GetPublicState(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		view, err := appState.GameSvc.PublicState(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(view)
	}
}

// GetPrivateState 只把阵营告诉持有令牌的玩家本人
func GetPrivateState(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID, playerID := ctx.Params().Get("id"), ctx.Params().Get("pid")
		if !authorize(ctx, appState, gameID, playerID) {
			return
		}

		view, err := appState.GameSvc.PrivateState(gameID, playerID)
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.JSON(view)
	}
}

func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.JoinGameRequest
		if !readJSON(ctx, &req) {
			return
		}

		gameID := ctx.Params().Get("id")

		playerID, token, err := appState.GameSvc.Join(gameID, req.PlayerName)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(dto.JoinGameResponse{
			GameID:   gameID,
			PlayerID: playerID,
			Token:    token,
		})
	}
}

func LeaveGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.PlayerRequest
		if !readJSON(ctx, &req) {
			return
		}

		gameID := ctx.Params().Get("id")
		if !authorize(ctx, appState, gameID, req.PlayerID) {
			return
		}

		report, err := appState.GameSvc.Leave(gameID, req.PlayerID)
		writeReport(ctx, report, err)
	}
}

func StartGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		report, err := appState.GameSvc.Start(ctx.Params().Get("id"))
		writeReport(ctx, report, err)
	}
}

func ProposeTeam(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.PlayerProposeRequest
		if !readJSON(ctx, &req) {
			return
		}

		gameID := ctx.Params().Get("id")
		if !authorize(ctx, appState, gameID, req.PlayerID) {
			return
		}

		report, err := appState.GameSvc.Propose(gameID, req.PlayerID, req.Nominees)
		writeReport(ctx, report, err)
	}
}

func PassProposal(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.PlayerRequest
		if !readJSON(ctx, &req) {
			return
		}

		gameID := ctx.Params().Get("id")
		if !authorize(ctx, appState, gameID, req.PlayerID) {
			return
		}

		report, err := appState.GameSvc.Pass(gameID, req.PlayerID)
		writeReport(ctx, report, err)
	}
}

func CastVote(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.PlayerVoteRequest
		if !readJSON(ctx, &req) {
			return
		}

		gameID := ctx.Params().Get("id")
		if !authorize(ctx, appState, gameID, req.PlayerID) {
			return
		}

		report, err := appState.GameSvc.Vote(gameID, req.PlayerID, req.Approve)
		writeReport(ctx, report, err)
	}
}

func SubmitAction(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.PlayerActionRequest
		if !readJSON(ctx, &req) {
			return
		}

		gameID := ctx.Params().Get("id")
		if !authorize(ctx, appState, gameID, req.PlayerID) {
			return
		}

		report, err := appState.GameSvc.Act(gameID, req.PlayerID, game.Action(req.Action))
		writeReport(ctx, report, err)
	}
}

func AbandonGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.AbandonGameRequest
		if ctx.GetContentLength() > 0 && !readJSON(ctx, &req) {
			return
		}

		report, err := appState.GameSvc.Abandon(ctx.Params().Get("id"), req.Reason)
		writeReport(ctx, report, err)
	}
}
