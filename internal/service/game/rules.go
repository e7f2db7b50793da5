package game

import "fmt"

// TableEntry 描述某个玩家人数下的阵营人数和每轮任务配置
type TableEntry struct {
	Minority   int   `json:"minority"`
	TeamSizes  []int `json:"team_sizes"`
	Thresholds []int `json:"thresholds"`
}

// Rules 汇总所有游戏设计常量，表格必须覆盖 [MinPlayers, MaxPlayers] 的每一个人数
type Rules struct {
	Table map[int]TableEntry `json:"table"`

	MaxRounds       int `json:"max_rounds"`
	SuccessesToWin  int `json:"successes_to_win"`
	FailuresToLose  int `json:"failures_to_lose"`
	MaxRejections   int `json:"max_rejections"`
	ForcedLossLimit int `json:"forced_loss_limit"`

	MaxSuspicion          int `json:"max_suspicion"`
	SuspicionOnSuccess    int `json:"suspicion_on_success"`
	SuspicionOnSabotaged  int `json:"suspicion_on_sabotaged"`
	SuspicionOnForcedLoss int `json:"suspicion_on_forced_loss"`
}

var (
	smallTeams  = []int{2, 3, 2, 3, 3}
	mediumTeams = []int{2, 3, 4, 3, 4}
	sevenTeams  = []int{2, 3, 3, 4, 4}
	largeTeams  = []int{3, 4, 4, 5, 5}

	singleThresholds   = []int{1, 1, 1, 1, 1}
	elevatedThresholds = []int{1, 1, 1, 2, 1}
)

// DefaultRules 返回默认规则
func DefaultRules() Rules {
	return Rules{
		Table: map[int]TableEntry{
			5:  {Minority: 1, TeamSizes: smallTeams, Thresholds: singleThresholds},
			6:  {Minority: 1, TeamSizes: mediumTeams, Thresholds: singleThresholds},
			7:  {Minority: 2, TeamSizes: sevenTeams, Thresholds: elevatedThresholds},
			8:  {Minority: 3, TeamSizes: largeTeams, Thresholds: elevatedThresholds},
			9:  {Minority: 3, TeamSizes: largeTeams, Thresholds: elevatedThresholds},
			10: {Minority: 4, TeamSizes: largeTeams, Thresholds: elevatedThresholds},
		},
		MaxRounds:       5,
		SuccessesToWin:  3,
		FailuresToLose:  3,
		MaxRejections:   5,
		ForcedLossLimit: 2,

		MaxSuspicion:          5,
		SuspicionOnSuccess:    0,
		SuspicionOnSabotaged:  2,
		SuspicionOnForcedLoss: 3,
	}
}

// ClassicRules 少数派人数更多，一次强制失败即结束游戏
func ClassicRules() Rules {
	r := DefaultRules()
	r.Table = map[int]TableEntry{
		5:  {Minority: 2, TeamSizes: smallTeams, Thresholds: singleThresholds},
		6:  {Minority: 2, TeamSizes: mediumTeams, Thresholds: singleThresholds},
		7:  {Minority: 3, TeamSizes: sevenTeams, Thresholds: elevatedThresholds},
		8:  {Minority: 3, TeamSizes: largeTeams, Thresholds: elevatedThresholds},
		9:  {Minority: 3, TeamSizes: largeTeams, Thresholds: elevatedThresholds},
		10: {Minority: 4, TeamSizes: largeTeams, Thresholds: elevatedThresholds},
	}
	r.ForcedLossLimit = 1
	return r
}

// RulesByPreset 按名称返回预设规则，未知名称返回 false
func RulesByPreset(name string) (Rules, bool) {
	switch name {
	case "", "default":
		return DefaultRules(), true
	case "classic":
		return ClassicRules(), true
	default:
		return Rules{}, false
	}
}

func (r Rules) MinPlayers() int {
	lo := 0
	for n := range r.Table {
		if lo == 0 || n < lo {
			lo = n
		}
	}
	return lo
}

func (r Rules) MaxPlayers() int {
	hi := 0
	for n := range r.Table {
		if n > hi {
			hi = n
		}
	}
	return hi
}

func (r Rules) entry(players int) (TableEntry, error) {
	e, ok := r.Table[players]
	if !ok {
		return TableEntry{}, fmt.Errorf(
			"%w: %d 人（支持 %d-%d 人）",
			ErrInvalidPlayerCount, players, r.MinPlayers(), r.MaxPlayers(),
		)
	}
	return e, nil
}

// FactionSizes 返回 (多数派人数, 少数派人数)
func (r Rules) FactionSizes(players int) (majority, minority int, err error) {
	e, err := r.entry(players)
	if err != nil {
		return 0, 0, err
	}
	return players - e.Minority, e.Minority, nil
}

// TeamSize 返回第 round 轮（从 1 开始）的队伍人数
func (r Rules) TeamSize(players, round int) (int, error) {
	e, err := r.entry(players)
	if err != nil {
		return 0, err
	}
	if round < 1 || round > len(e.TeamSizes) {
		return 0, fmt.Errorf("%w: 轮次 %d 超出范围", ErrInvalidRules, round)
	}
	return e.TeamSizes[round-1], nil
}

// SabotageThreshold 返回第 round 轮判定任务被破坏所需的破坏票数
func (r Rules) SabotageThreshold(players, round int) (int, error) {
	e, err := r.entry(players)
	if err != nil {
		return 0, err
	}
	if round < 1 || round > len(e.Thresholds) {
		return 0, fmt.Errorf("%w: 轮次 %d 超出范围", ErrInvalidRules, round)
	}
	return e.Thresholds[round-1], nil
}

// Validate 检查规则是否自洽，保证每局游戏一定能在 MaxRounds 内结束
func (r Rules) Validate() error {
	if len(r.Table) == 0 {
		return fmt.Errorf("%w: 人数表为空", ErrInvalidRules)
	}

	for n := r.MinPlayers(); n <= r.MaxPlayers(); n++ {
		e, ok := r.Table[n]
		if !ok {
			return fmt.Errorf("%w: 人数表缺少 %d 人的配置", ErrInvalidRules, n)
		}
		if e.Minority < 1 || n-e.Minority <= e.Minority {
			return fmt.Errorf("%w: %d 人局少数派人数 %d 不合法", ErrInvalidRules, n, e.Minority)
		}
		if len(e.TeamSizes) != r.MaxRounds || len(e.Thresholds) != r.MaxRounds {
			return fmt.Errorf("%w: %d 人局的轮次配置数量与最大轮数不一致", ErrInvalidRules, n)
		}
		for i, size := range e.TeamSizes {
			if size < 1 || size > n {
				return fmt.Errorf("%w: %d 人局第 %d 轮队伍人数 %d 不合法", ErrInvalidRules, n, i+1, size)
			}
			if t := e.Thresholds[i]; t < 1 || t > size {
				return fmt.Errorf("%w: %d 人局第 %d 轮破坏阈值 %d 不合法", ErrInvalidRules, n, i+1, t)
			}
		}
	}

	switch {
	case r.SuccessesToWin < 1 || r.FailuresToLose < 1:
		return fmt.Errorf("%w: 胜利条件必须为正数", ErrInvalidRules)
	case r.SuccessesToWin+r.FailuresToLose-1 > r.MaxRounds:
		return fmt.Errorf("%w: 最大轮数不足以决出胜负", ErrInvalidRules)
	case r.MaxRejections < 1 || r.ForcedLossLimit < 1:
		return fmt.Errorf("%w: 否决上限必须为正数", ErrInvalidRules)
	case r.MaxSuspicion < 1:
		return fmt.Errorf("%w: 怀疑度上限必须为正数", ErrInvalidRules)
	case r.SuspicionOnSuccess < 0 || r.SuspicionOnSabotaged < 0 || r.SuspicionOnForcedLoss < 0:
		return fmt.Errorf("%w: 怀疑度增量不能为负数", ErrInvalidRules)
	}

	return nil
}
