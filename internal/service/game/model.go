package game

// 阵营：多数派（特工）与少数派（黑客）
type Faction string

const (
	FactionUnset    Faction = ""
	FactionMajority Faction = "Majority"
	FactionMinority Faction = "Minority"
)

// 任务行动
type Action string

const (
	ActionCooperate Action = "Cooperate"
	ActionSabotage  Action = "Sabotage"
)

func (a Action) valid() bool {
	return a == ActionCooperate || a == ActionSabotage
}

type MissionOutcome string

const (
	OutcomeSuccess   MissionOutcome = "Success"
	OutcomeSabotaged MissionOutcome = "Sabotaged"
)

type WinReason string

const (
	WinMissionsSecured   WinReason = "MissionsSecured"
	WinMissionsSabotaged WinReason = "MissionsSabotaged"
	WinSuspicionMaxed    WinReason = "SuspicionMaxed"
	WinRejectionLimit    WinReason = "RejectionLimit"
)

// 在场人数凑不齐队伍时自动中止的原因
const AbortNotEnoughPlayers = "NotEnoughPlayers"

// Player 的 ID 在整局游戏中不变，阵营只在开局时分配一次
type Player struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Faction Faction `json:"-"`
	Active  bool    `json:"active"`
}
