package game

import (
	"fmt"
	"slices"
)

// 公开视图与私有视图是两个独立的投影。
// PublicView 及其内部类型都没有阵营字段，所以无论怎么序列化都不会泄露其他玩家的身份。

type PublicPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type AttemptSummary struct {
	Proposer string         `json:"proposer"`
	Team     []string       `json:"team"`
	Approved []string       `json:"approved"`
	Rejected []string       `json:"rejected"`
	Outcome  VoteResolution `json:"outcome"`
}

type RoundSummary struct {
	Index      int              `json:"index"`
	TeamSize   int              `json:"team_size"`
	Threshold  int              `json:"threshold"`
	Rejections int              `json:"rejections"`
	Attempts   []AttemptSummary `json:"attempts"`
	Outcome    MissionOutcome   `json:"outcome,omitempty"`
	ForcedLoss bool             `json:"forced_loss"`
}

type PublicView struct {
	GameID  string         `json:"game_id"`
	Phase   Phase          `json:"phase"`
	Players []PublicPlayer `json:"players"`

	Round         int      `json:"round"`
	Proposer      string   `json:"proposer,omitempty"`
	RequiredSize  int      `json:"required_size,omitempty"`
	Threshold     int      `json:"threshold,omitempty"`
	CurrentTeam   []string `json:"current_team,omitempty"`
	Rejections    int      `json:"rejections"`
	MaxRejections int      `json:"max_rejections"`

	// 只公开谁还没有投票或行动，不公开行动内容
	AwaitingVotes   []string `json:"awaiting_votes,omitempty"`
	AwaitingActions []string `json:"awaiting_actions,omitempty"`

	Suspicion    int `json:"suspicion"`
	MaxSuspicion int `json:"max_suspicion"`

	Missions     []MissionRecord `json:"missions"`
	ForcedLosses []int           `json:"forced_losses"`
	Rounds       []RoundSummary  `json:"rounds"`

	Winner      Faction   `json:"winner,omitempty"`
	WinReason   WinReason `json:"win_reason,omitempty"`
	AbortReason string    `json:"abort_reason,omitempty"`
}

type ActionRecord struct {
	Round  int    `json:"round"`
	Action Action `json:"action"`
}

type PrivateView struct {
	GameID   string  `json:"game_id"`
	PlayerID string  `json:"player_id"`
	Faction  Faction `json:"faction,omitempty"`
	// 只有少数派能看到同伴
	Teammates []string       `json:"teammates,omitempty"`
	Actions   []ActionRecord `json:"actions"`
}

// PublicState 返回所有人都可以看到的信息
func (g *Game) PublicState() PublicView {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx := g.ctx

	view := PublicView{
		GameID:        ctx.GameID,
		Phase:         ctx.Phase,
		Players:       make([]PublicPlayer, 0, len(ctx.Roster)),
		Round:         ctx.roundIndex(),
		MaxRejections: ctx.Rules.MaxRejections,
		Suspicion:     ctx.Suspicion.Level(),
		MaxSuspicion:  ctx.Suspicion.Max(),
		Missions:      slices.Clone(ctx.Missions),
		ForcedLosses:  slices.Clone(ctx.ForcedLosses),
		Rounds:        make([]RoundSummary, 0, len(ctx.Rounds)),
		Winner:        ctx.Winner,
		WinReason:     ctx.WinReason,
		AbortReason:   ctx.AbortReason,
	}

	for _, id := range ctx.Roster {
		p := ctx.Players[id]
		view.Players = append(view.Players, PublicPlayer{ID: p.ID, Name: p.Name, Active: p.Active})
	}

	if ctx.Proposals != nil {
		view.Proposer = ctx.Proposals.Current()
	}

	if r := ctx.Round; r != nil {
		view.RequiredSize = r.TeamSize
		view.Threshold = r.Threshold
		view.Rejections = r.Rejections

		if a := r.CurrentAttempt(); a != nil && (ctx.Phase == PhaseVoting || ctx.Phase == PhaseMissionInProgress) {
			view.CurrentTeam = slices.Clone(a.Team)
		}

		switch ctx.Phase {
		case PhaseVoting:
			view.AwaitingVotes = sortedByRoster(ctx, r.CurrentAttempt().Tally.Outstanding())
		case PhaseMissionInProgress:
			view.AwaitingActions = r.Mission.Outstanding()
		}
	}

	for _, r := range ctx.Rounds {
		view.Rounds = append(view.Rounds, summarizeRound(r))
	}

	return view
}

func summarizeRound(r *Round) RoundSummary {
	summary := RoundSummary{
		Index:      r.Index,
		TeamSize:   r.TeamSize,
		Threshold:  r.Threshold,
		Rejections: r.Rejections,
		Attempts:   make([]AttemptSummary, 0, len(r.Attempts)),
		Outcome:    r.Outcome,
		ForcedLoss: r.ForcedLoss,
	}

	for _, a := range r.Attempts {
		as := AttemptSummary{
			Proposer: a.Proposer,
			Team:     slices.Clone(a.Team),
			Outcome:  a.Outcome,
		}
		// 投票是公开的，但只在结算后展示
		if a.Outcome != VotePending {
			as.Approved, as.Rejected = a.Tally.Ballots()
		}
		summary.Attempts = append(summary.Attempts, as)
	}

	return summary
}

func sortedByRoster(ctx *GameContext, ids []string) []string {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	out := make([]string, 0, len(ids))
	for _, id := range ctx.Roster {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// PrivateState 只返回调用者自己的身份和行动记录
func (g *Game) PrivateState(playerID string) (PrivateView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx := g.ctx

	p, ok := ctx.Players[playerID]
	if !ok {
		return PrivateView{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	view := PrivateView{
		GameID:   ctx.GameID,
		PlayerID: p.ID,
		Faction:  p.Faction,
		Actions:  make([]ActionRecord, 0, len(ctx.Rounds)),
	}

	if p.Faction == FactionMinority {
		for _, id := range ctx.membersOf(FactionMinority) {
			if id != p.ID {
				view.Teammates = append(view.Teammates, id)
			}
		}
	}

	for _, r := range ctx.Rounds {
		if r.Mission == nil {
			continue
		}
		if a, ok := r.Mission.ActionOf(p.ID); ok {
			view.Actions = append(view.Actions, ActionRecord{Round: r.Index, Action: a})
		}
	}

	return view, nil
}
