package game

import "fmt"

// ProposalAttempt 是一次提名及其投票结果
type ProposalAttempt struct {
	Proposer string
	Team     []string
	Tally    *VoteTally
	Outcome  VoteResolution
}

// ProposalManager 按开局时随机确定的顺序轮换提名者，跨轮次无限循环
type ProposalManager struct {
	order []string
	idx   int
}

func NewProposalManager(order []string) *ProposalManager {
	return &ProposalManager{
		order: append([]string(nil), order...),
	}
}

func (pm *ProposalManager) Current() string {
	if len(pm.order) == 0 {
		return ""
	}
	return pm.order[pm.idx]
}

func (pm *ProposalManager) Order() []string {
	return append([]string(nil), pm.order...)
}

// NextProposer 把提名权交给下一个仍在场的玩家。
// 如果所有人都已离场，提名者保持不变。
func (pm *ProposalManager) NextProposer(active func(id string) bool) string {
	for step := 1; step <= len(pm.order); step++ {
		next := (pm.idx + step) % len(pm.order)
		if active(pm.order[next]) {
			pm.idx = next
			break
		}
	}
	return pm.Current()
}

// Pass 由当前提名者放弃提名，不计入否决次数
func (pm *ProposalManager) Pass(proposer string, active func(id string) bool) (string, error) {
	if proposer != pm.Current() {
		return "", ErrNotCurrentProposer
	}
	return pm.NextProposer(active), nil
}

// SubmitTeam 校验提名并生成新的提名记录，不修改管理器本身的状态
func (pm *ProposalManager) SubmitTeam(
	proposer string,
	nominees []string,
	requiredSize int,
	active func(id string) bool,
) (*ProposalAttempt, error) {
	if proposer != pm.Current() {
		return nil, ErrNotCurrentProposer
	}

	if len(nominees) != requiredSize {
		return nil, fmt.Errorf("%w: 需要 %d 人，实际 %d 人", ErrWrongTeamSize, requiredSize, len(nominees))
	}

	seen := make(map[string]struct{}, len(nominees))
	for _, id := range nominees {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNominee, id)
		}
		if !active(id) {
			return nil, fmt.Errorf("%w: %s", ErrIneligibleNominee, id)
		}
		seen[id] = struct{}{}
	}

	return &ProposalAttempt{
		Proposer: proposer,
		Team:     append([]string(nil), nominees...),
		Outcome:  VotePending,
	}, nil
}
