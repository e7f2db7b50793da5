package http

import (
	"fmt"

	"mindnight-be/internal/api/http/websocket"
	"mindnight-be/internal/state"

	"github.com/kataras/iris/v12"
)

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	api := app.Party("/api/v1")

	api.Post("/games", CreateGame(appState))
	api.Get("/games/{id:string}", GetPublicState(appState))
	api.Get("/games/{id:string}/players/{pid:string}", GetPrivateState(appState))

	api.Post("/games/{id:string}/join", JoinGame(appState))
	api.Post("/games/{id:string}/leave", LeaveGame(appState))
	api.Post("/games/{id:string}/start", StartGame(appState))
	api.Post("/games/{id:string}/propose", ProposeTeam(appState))
	api.Post("/games/{id:string}/pass", PassProposal(appState))
	api.Post("/games/{id:string}/vote", CastVote(appState))
	api.Post("/games/{id:string}/action", SubmitAction(appState))
	api.Post("/games/{id:string}/abandon", AbandonGame(appState))

	api.Get("/ws/games/{id:string}", websocket.PlayGame(appState))

	return app
}

func RunServer(appState *state.AppState) {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	app.Listen(addr)
}
