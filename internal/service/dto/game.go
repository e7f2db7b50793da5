package dto

// HTTP 接口的请求体

type CreateGameRequest struct {
	// default 或 classic，留空使用配置中的预设
	Preset string `json:"preset"`
	// 可选的随机种子，便于复现对局
	Seed *uint64 `json:"seed,omitempty"`
}

type CreateGameResponse struct {
	GameID string `json:"game_id"`
	Preset string `json:"preset"`
}

type JoinGameRequest struct {
	PlayerName string `json:"player_name"`
}

// Token 只在加入时返回一次，之后的玩家请求放在 X-Player-Token 请求头中
type JoinGameResponse struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

type PlayerRequest struct {
	PlayerID string `json:"player_id"`
}

type AbandonGameRequest struct {
	Reason string `json:"reason"`
}

type PlayerProposeRequest struct {
	PlayerID string   `json:"player_id"`
	Nominees []string `json:"nominees"`
}

type PlayerVoteRequest struct {
	PlayerID string `json:"player_id"`
	Approve  bool   `json:"approve"`
}

type PlayerActionRequest struct {
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
}
