package game

import "fmt"

// Mission 绑定在一次通过的提名上，收集每名队员的秘密行动
type Mission struct {
	team      []string
	members   map[string]struct{}
	threshold int
	actions   map[string]Action
}

func NewMission(team []string, threshold int) *Mission {
	m := &Mission{
		team:      append([]string(nil), team...),
		members:   make(map[string]struct{}, len(team)),
		threshold: threshold,
		actions:   make(map[string]Action, len(team)),
	}
	for _, id := range team {
		m.members[id] = struct{}{}
	}
	return m
}

func (m *Mission) Team() []string {
	return append([]string(nil), m.team...)
}

func (m *Mission) Threshold() int {
	return m.threshold
}

// SubmitAction 记录队员的行动。
// 只有少数派可以破坏任务，多数派提交的破坏会被当作合作处理；
// 两个阵营得到的校验结果完全一致，避免通过错误信息泄露身份。
func (m *Mission) SubmitAction(playerID string, faction Faction, action Action) error {
	if _, ok := m.members[playerID]; !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotOnTeam, playerID)
	}
	if !action.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if _, ok := m.actions[playerID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, playerID)
	}

	if faction != FactionMinority {
		action = ActionCooperate
	}

	m.actions[playerID] = action
	return nil
}

// ActionOf 返回玩家实际被记录的行动
func (m *Mission) ActionOf(playerID string) (Action, bool) {
	a, ok := m.actions[playerID]
	return a, ok
}

func (m *Mission) Outstanding() []string {
	out := make([]string, 0, len(m.team))
	for _, id := range m.team {
		if _, ok := m.actions[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (m *Mission) Complete() bool {
	return len(m.actions) == len(m.team)
}

// Resolve 统计破坏次数并与本轮阈值比较，必须所有队员都已行动
func (m *Mission) Resolve() (MissionOutcome, int, error) {
	if !m.Complete() {
		return "", 0, fmt.Errorf("%w: 还差 %d 人", ErrMissionIncomplete, len(m.team)-len(m.actions))
	}

	sabotages := 0
	for _, a := range m.actions {
		if a == ActionSabotage {
			sabotages++
		}
	}

	if sabotages >= m.threshold {
		return OutcomeSabotaged, sabotages, nil
	}
	return OutcomeSuccess, sabotages, nil
}
