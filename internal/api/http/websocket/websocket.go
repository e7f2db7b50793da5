package websocket

import (
	"errors"
	"net/http"
	"time"

	"mindnight-be/internal/service"
	"mindnight-be/internal/service/dto"
	"mindnight-be/internal/service/game"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间
	HEARTBEAT_TIMEOUT = 45 * time.Second
)

var errUnknownRequest = errors.New("无法处理请求：未知的请求类型")

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}

// handleRequest 把客户端请求转发给游戏服务，玩家 ID 取自连接而不是请求体
func handleRequest(svc *service.GameService, gameID, playerID string, wrapper dto.RequestWrapper) error {
	if req := dto.TryUnwrapProposeTeamRequest(wrapper); req != nil {
		_, err := svc.Propose(gameID, playerID, req.Nominees)
		return err
	}

	if dto.IsPassProposalRequest(wrapper) {
		_, err := svc.Pass(gameID, playerID)
		return err
	}

	if req := dto.TryUnwrapCastVoteRequest(wrapper); req != nil {
		_, err := svc.Vote(gameID, playerID, req.Approve)
		return err
	}

	if req := dto.TryUnwrapSubmitActionRequest(wrapper); req != nil {
		_, err := svc.Act(gameID, playerID, game.Action(req.Action))
		return err
	}

	if req := dto.TryUnwrapAbandonRequest(wrapper); req != nil {
		_, err := svc.Abandon(gameID, req.Reason)
		return err
	}

	return errUnknownRequest
}
