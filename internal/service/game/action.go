package game

// 状态机接收的事件类型
const (
	EV_JOIN       = "Join"
	EV_LEAVE      = "Leave"
	EV_START      = "Start"
	EV_PROPOSE    = "ProposeTeam"
	EV_PASS       = "PassProposal"
	EV_VOTE       = "CastVote"
	EV_ACTION     = "SubmitAction"
	EV_DEACTIVATE = "Deactivate"
	EV_ABANDON    = "Abandon"
)

type Event struct {
	Kind     string
	PlayerID string
	Name     string
	Nominees []string
	Approve  bool
	Action   Action
	Reason   string
}

// Transition 是一次阶段切换，按发生顺序交给表现层渲染
type Transition struct {
	From  Phase  `json:"from"`
	To    Phase  `json:"to"`
	Round int    `json:"round"`
	Cause string `json:"cause"`
}

// Report 是一次变更请求的结果
type Report struct {
	GameID      string       `json:"game_id"`
	Event       string       `json:"event"`
	PlayerID    string       `json:"player_id,omitempty"`
	Transitions []Transition `json:"transitions"`
}

func (r Report) Changed() bool {
	return len(r.Transitions) > 0
}
