package game

import "fmt"

type VoteResolution string

const (
	VotePending  VoteResolution = "Pending"
	VoteApproved VoteResolution = "Approved"
	VoteRejected VoteResolution = "Rejected"
	// 本轮连续否决次数达到上限，本轮直接判负，不进行任务
	VoteForcedLoss VoteResolution = "ForcedLoss"
)

// VoteTally 收集一次提名的投票，投票者集合在提名时确定
type VoteTally struct {
	eligible map[string]struct{}
	votes    map[string]bool
	// 按投票先后记录，便于公开展示
	order []string
}

func NewVoteTally(eligible []string) *VoteTally {
	vt := &VoteTally{
		eligible: make(map[string]struct{}, len(eligible)),
		votes:    make(map[string]bool, len(eligible)),
	}
	for _, id := range eligible {
		vt.eligible[id] = struct{}{}
	}
	return vt
}

// CastVote 记录一票，每人只能投一次，投出后不可更改
func (vt *VoteTally) CastVote(playerID string, approve bool) error {
	if _, ok := vt.eligible[playerID]; !ok {
		return fmt.Errorf("%w: %s", ErrIneligibleVoter, playerID)
	}
	if _, ok := vt.votes[playerID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVote, playerID)
	}

	vt.votes[playerID] = approve
	vt.order = append(vt.order, playerID)
	return nil
}

// Drop 将中途离场的玩家移出待投票名单，已投出的票保留
func (vt *VoteTally) Drop(playerID string) {
	if _, voted := vt.votes[playerID]; voted {
		return
	}
	delete(vt.eligible, playerID)
}

func (vt *VoteTally) HasVoted(playerID string) bool {
	_, ok := vt.votes[playerID]
	return ok
}

// Outstanding 返回尚未投票的玩家
func (vt *VoteTally) Outstanding() []string {
	out := make([]string, 0, len(vt.eligible)-len(vt.votes))
	for id := range vt.eligible {
		if _, ok := vt.votes[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (vt *VoteTally) Counts() (approvals, rejections int) {
	for _, approve := range vt.votes {
		if approve {
			approvals++
		} else {
			rejections++
		}
	}
	return approvals, rejections
}

// Resolve 在所有有资格的玩家投票前返回 Pending；之后按严格多数判定，平票视为否决
func (vt *VoteTally) Resolve() VoteResolution {
	if len(vt.Outstanding()) > 0 {
		return VotePending
	}

	approvals, rejections := vt.Counts()
	if approvals > rejections {
		return VoteApproved
	}
	return VoteRejected
}

// Ballots 按投票顺序返回公开的投票记录
func (vt *VoteTally) Ballots() (approved, rejected []string) {
	approved = make([]string, 0, len(vt.order))
	rejected = make([]string, 0, len(vt.order))
	for _, id := range vt.order {
		if vt.votes[id] {
			approved = append(approved, id)
		} else {
			rejected = append(rejected, id)
		}
	}
	return approved, rejected
}
