package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"mindnight-be/internal/service"
	"mindnight-be/internal/service/dto"
	"mindnight-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// PlayGame 把一名玩家接入对局：推送公开事件和自己的私有视图，接收玩家的操作
func PlayGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID := ctx.Params().Get("id")
		playerID := ctx.URLParam("player_id")
		svc := appState.GameSvc

		// 升级前先确认连接方持有该玩家的令牌
		if err := svc.Authorize(gameID, playerID, ctx.URLParam("token")); err != nil {
			zap.L().Warn(
				"玩家凭证校验失败，拒绝连接",
				zap.String("game_id", gameID),
				zap.String("player_id", playerID),
				zap.Error(err),
			)
			if errors.Is(err, service.ErrGameNotFound) {
				ctx.StatusCode(iris.StatusNotFound)
			} else {
				ctx.StatusCode(iris.StatusForbidden)
			}
			return
		}

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		events, unsubscribe, err := svc.Subscribe(gameID)
		if err != nil {
			zap.L().Error("订阅游戏事件失败", zap.String("game_id", gameID), zap.Error(err))
			return
		}
		defer unsubscribe()

		clientIP := ctx.RemoteAddr()

		// 直接回复给本连接的响应，例如错误和状态查询
		respCh := make(chan dto.ResponseWrapper, 16)

		reply := func(resp dto.ResponseWrapper) {
			select {
			case respCh <- resp:
			default:
				zap.L().Warn("发送响应失败：响应通道已满", zap.String("player_id", playerID))
			}
		}

		pushState := func() {
			if view, err := svc.PublicState(gameID); err == nil {
				reply(dto.WrapResponse(dto.RESP_PUBLIC_STATE, view))
			}
			if view, err := svc.PrivateState(gameID, playerID); err == nil {
				reply(dto.WrapResponse(dto.RESP_PRIVATE_STATE, view))
			}
		}

		pushState()

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		// 写入协程，连接上的所有写操作都在这里完成
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			write := func(resp dto.ResponseWrapper) bool {
				conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
				if err := conn.WriteJSON(resp); err != nil {
					zap.L().Error(
						"发送消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
					return false
				}
				return true
			}

			for {
				select {
				case <-writeDoneCh:
					zap.L().Info(
						"WebSocket写入协程退出",
						zap.String("client_ip", clientIP),
					)
					return

				case <-ticker.C:
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

				case ev, ok := <-events:
					// 游戏被清理时通道会被关闭
					if !ok {
						zap.L().Info(
							"事件通道已关闭，退出写协程",
							zap.String("client_ip", clientIP),
						)
						conn.Close()
						return
					}

					if !write(dto.WrapResponse(dto.RESP_REPORT, ev)) {
						return
					}

					// 每次变化后附带自己的私有视图
					if view, err := svc.PrivateState(gameID, playerID); err == nil {
						if !write(dto.WrapResponse(dto.RESP_PRIVATE_STATE, view)) {
							return
						}
					}

				case resp := <-respCh:
					if !write(resp) {
						return
					}
				}
			}
		}()

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var wrapper dto.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				reply(dto.WrapErrResponse("无效的请求格式"))

				continue
			}

			if dto.IsGetStateRequest(wrapper) {
				pushState()
				continue
			}

			if err := handleRequest(svc, gameID, playerID, wrapper); err != nil {
				zap.L().Debug(
					"处理玩家请求失败",
					zap.String("game_id", gameID),
					zap.String("player_id", playerID),
					zap.String("request_type", wrapper.ReqType),
					zap.Error(err),
				)

				reply(dto.WrapErrResponse(err.Error()))
			}
		}

		// 读循环退出，表示客户端断开连接
		zap.L().Info(
			"客户端连接断开，玩家离场",
			zap.String("client_ip", clientIP),
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
		)

		if _, err := svc.Leave(gameID, playerID); err != nil {
			zap.L().Debug(
				"玩家离场失败",
				zap.String("player_id", playerID),
				zap.Error(err),
			)
		}
	}
}
