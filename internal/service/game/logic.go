package game

import (
	"fmt"

	"go.uber.org/zap"
)

// 游戏阶段：
// 1. 大厅（Lobby）：玩家加入或离开，人数满足要求后可以开始
// 2. 分配身份（RoleAssignment）：瞬时阶段，随机分配阵营并开始第一轮
// 3. 提名（Proposing）：当前提名者选出任务队伍
// 4. 投票（Voting）：所有在场玩家公开投票
// 5. 任务（MissionInProgress）：队员秘密提交行动
// 6. 结算（RoundResolved）：瞬时阶段，推进怀疑度并判定胜负
// 7. 结束（GameOver）/ 中止（Aborted）：终止阶段
type Phase string

const (
	PhaseLobby             Phase = "Lobby"
	PhaseRoleAssignment    Phase = "RoleAssignment"
	PhaseProposing         Phase = "Proposing"
	PhaseVoting            Phase = "Voting"
	PhaseMissionInProgress Phase = "MissionInProgress"
	PhaseRoundResolved     Phase = "RoundResolved"
	PhaseGameOver          Phase = "GameOver"
	PhaseAborted           Phase = "Aborted"
)

func (p Phase) Terminal() bool {
	return p == PhaseGameOver || p == PhaseAborted
}

// StageHandler 处理某个阶段内的事件。
// OnHandle 必须先完成全部校验再修改状态，返回错误时上下文保持不变。
type StageHandler interface {
	Stage() Phase

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, ev Event) error

	SetOnSwitch(func(next Phase, cause string))
}

type baseHandler struct {
	onSwitch func(Phase, string)
}

func (bh *baseHandler) SetOnSwitch(onSwitch func(Phase, string)) {
	bh.onSwitch = onSwitch
}

// 大厅阶段
type lobbyStageHandler struct {
	baseHandler
}

func NewLobbyStageHandler() *lobbyStageHandler {
	return &lobbyStageHandler{}
}

func (lsh *lobbyStageHandler) Stage() Phase {
	return PhaseLobby
}

func (lsh *lobbyStageHandler) OnEnter(ctx *GameContext) {
}

func (lsh *lobbyStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	switch ev.Kind {
	case EV_JOIN:
		if ev.PlayerID == "" {
			return fmt.Errorf("%w: 玩家 ID 不能为空", ErrUnknownPlayer)
		}
		if _, ok := ctx.Players[ev.PlayerID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, ev.PlayerID)
		}
		if len(ctx.Roster) >= ctx.Rules.MaxPlayers() {
			return fmt.Errorf("%w: 最多 %d 人", ErrLobbyFull, ctx.Rules.MaxPlayers())
		}

		name := ev.Name
		if name == "" {
			name = ev.PlayerID
		}

		ctx.Players[ev.PlayerID] = &Player{
			ID:     ev.PlayerID,
			Name:   name,
			Active: true,
		}
		ctx.Roster = append(ctx.Roster, ev.PlayerID)

		return nil

	case EV_LEAVE:
		if _, ok := ctx.Players[ev.PlayerID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, ev.PlayerID)
		}

		delete(ctx.Players, ev.PlayerID)
		for i, id := range ctx.Roster {
			if id == ev.PlayerID {
				ctx.Roster = append(ctx.Roster[:i], ctx.Roster[i+1:]...)
				break
			}
		}

		return nil

	case EV_START:
		// 在切换前完成分配，失败时大厅保持原样
		assignment, err := AssignRoles(ctx.Rules, ctx.Roster, ctx.rng)
		if err != nil {
			return err
		}

		ctx.assignment = assignment
		lsh.onSwitch(PhaseRoleAssignment, EV_START)

		return nil
	}

	return fmt.Errorf("%w: 大厅阶段不支持 %s", ErrWrongPhase, ev.Kind)
}

// 身份分配阶段，进入后立即开始第一轮
type roleStageHandler struct {
	baseHandler
}

func NewRoleStageHandler() *roleStageHandler {
	return &roleStageHandler{}
}

func (rsh *roleStageHandler) Stage() Phase {
	return PhaseRoleAssignment
}

func (rsh *roleStageHandler) OnEnter(ctx *GameContext) {
	for id, faction := range ctx.assignment {
		ctx.Players[id].Faction = faction
	}
	ctx.assignment = nil

	order := append([]string(nil), ctx.Roster...)
	ctx.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	ctx.Proposals = NewProposalManager(order)
	ctx.Suspicion.Reset()

	if err := ctx.startRound(1); err != nil {
		// 开局前已校验过规则和人数
		zap.L().Error("无法开始第一轮", zap.String("game_id", ctx.GameID), zap.Error(err))
		return
	}

	rsh.onSwitch(PhaseProposing, "RolesAssigned")
}

func (rsh *roleStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	return fmt.Errorf("%w: 正在分配身份", ErrWrongPhase)
}

// 提名阶段
type proposeStageHandler struct {
	baseHandler
}

func NewProposeStageHandler() *proposeStageHandler {
	return &proposeStageHandler{}
}

func (psh *proposeStageHandler) Stage() Phase {
	return PhaseProposing
}

func (psh *proposeStageHandler) OnEnter(ctx *GameContext) {
	if psh.abortIfShortHanded(ctx) {
		return
	}

	// 提名者可能在上一阶段离场
	if !ctx.isActive(ctx.Proposals.Current()) {
		ctx.Proposals.NextProposer(ctx.isActive)
	}
}

// abortIfShortHanded 在场人数凑不齐本轮队伍时中止游戏，否则没有任何合法的输入
func (psh *proposeStageHandler) abortIfShortHanded(ctx *GameContext) bool {
	active := len(ctx.activeIDs())
	if active >= ctx.Round.TeamSize {
		return false
	}

	zap.L().Info(
		"在场人数不足，游戏中止",
		zap.String("game_id", ctx.GameID),
		zap.Int("round", ctx.Round.Index),
		zap.Int("active", active),
		zap.Int("team_size", ctx.Round.TeamSize),
	)

	ctx.AbortReason = AbortNotEnoughPlayers
	psh.onSwitch(PhaseAborted, AbortNotEnoughPlayers)
	return true
}

func (psh *proposeStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	switch ev.Kind {
	case EV_PROPOSE:
		attempt, err := ctx.Proposals.SubmitTeam(
			ev.PlayerID,
			ev.Nominees,
			ctx.Round.TeamSize,
			ctx.isActive,
		)
		if err != nil {
			return err
		}

		attempt.Tally = NewVoteTally(ctx.activeIDs())
		ctx.Round.Attempts = append(ctx.Round.Attempts, attempt)

		psh.onSwitch(PhaseVoting, EV_PROPOSE)

		return nil

	case EV_PASS:
		next, err := ctx.Proposals.Pass(ev.PlayerID, ctx.isActive)
		if err != nil {
			return err
		}

		zap.L().Debug(
			"提名者放弃提名",
			zap.String("game_id", ctx.GameID),
			zap.String("player_id", ev.PlayerID),
			zap.String("next_proposer", next),
		)

		return nil

	case EV_DEACTIVATE:
		if psh.abortIfShortHanded(ctx) {
			return nil
		}
		if ev.PlayerID == ctx.Proposals.Current() {
			ctx.Proposals.NextProposer(ctx.isActive)
		}
		return nil
	}

	return fmt.Errorf("%w: 提名阶段不支持 %s", ErrWrongPhase, ev.Kind)
}

// 投票阶段
type voteStageHandler struct {
	baseHandler
}

func NewVoteStageHandler() *voteStageHandler {
	return &voteStageHandler{}
}

func (vsh *voteStageHandler) Stage() Phase {
	return PhaseVoting
}

func (vsh *voteStageHandler) OnEnter(ctx *GameContext) {
}

func (vsh *voteStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	attempt := ctx.Round.CurrentAttempt()

	switch ev.Kind {
	case EV_VOTE:
		if err := attempt.Tally.CastVote(ev.PlayerID, ev.Approve); err != nil {
			return err
		}

	case EV_DEACTIVATE:
		attempt.Tally.Drop(ev.PlayerID)

	default:
		return fmt.Errorf("%w: 投票阶段不支持 %s", ErrWrongPhase, ev.Kind)
	}

	vsh.settle(ctx, attempt)

	return nil
}

// settle 在最后一票到达时结算本次提名
func (vsh *voteStageHandler) settle(ctx *GameContext, attempt *ProposalAttempt) {
	resolution := attempt.Tally.Resolve()
	if resolution == VotePending {
		return
	}

	// 无论结果如何，下一次提名都轮到下一位玩家
	ctx.Proposals.NextProposer(ctx.isActive)

	if resolution == VoteApproved {
		attempt.Outcome = VoteApproved
		ctx.Round.Mission = NewMission(attempt.Team, ctx.Round.Threshold)
		vsh.onSwitch(PhaseMissionInProgress, string(VoteApproved))
		return
	}

	ctx.Round.Rejections++
	if ctx.Round.Rejections >= ctx.Rules.MaxRejections {
		attempt.Outcome = VoteForcedLoss
		ctx.Round.ForcedLoss = true
		ctx.ForcedLosses = append(ctx.ForcedLosses, ctx.Round.Index)
		vsh.onSwitch(PhaseRoundResolved, string(VoteForcedLoss))
		return
	}

	attempt.Outcome = VoteRejected
	vsh.onSwitch(PhaseProposing, string(VoteRejected))
}

// 任务阶段
type missionStageHandler struct {
	baseHandler
}

func NewMissionStageHandler() *missionStageHandler {
	return &missionStageHandler{}
}

func (msh *missionStageHandler) Stage() Phase {
	return PhaseMissionInProgress
}

func (msh *missionStageHandler) OnEnter(ctx *GameContext) {
	// 队伍中已离场的玩家默认合作
	for _, id := range ctx.Round.Mission.Outstanding() {
		if !ctx.isActive(id) {
			_ = ctx.Round.Mission.SubmitAction(id, ctx.factionOf(id), ActionCooperate)
		}
	}
	msh.settle(ctx)
}

func (msh *missionStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	mission := ctx.Round.Mission

	switch ev.Kind {
	case EV_ACTION:
		if !ctx.isActive(ev.PlayerID) {
			return fmt.Errorf("%w: %s", ErrPlayerNotOnTeam, ev.PlayerID)
		}
		if err := mission.SubmitAction(ev.PlayerID, ctx.factionOf(ev.PlayerID), ev.Action); err != nil {
			return err
		}

	case EV_DEACTIVATE:
		if _, acted := mission.ActionOf(ev.PlayerID); !acted {
			// 不在队伍中的玩家会返回错误，这里无需处理
			_ = mission.SubmitAction(ev.PlayerID, ctx.factionOf(ev.PlayerID), ActionCooperate)
		}

	default:
		return fmt.Errorf("%w: 任务阶段不支持 %s", ErrWrongPhase, ev.Kind)
	}

	msh.settle(ctx)

	return nil
}

func (msh *missionStageHandler) settle(ctx *GameContext) {
	mission := ctx.Round.Mission
	if !mission.Complete() {
		return
	}

	outcome, sabotages, err := mission.Resolve()
	if err != nil {
		return
	}

	ctx.Round.Outcome = outcome
	ctx.Missions = append(ctx.Missions, MissionRecord{
		Round:     ctx.Round.Index,
		Team:      mission.Team(),
		Outcome:   outcome,
		Sabotages: sabotages,
	})

	msh.onSwitch(PhaseRoundResolved, string(outcome))
}

// 结算阶段：推进怀疑度，判定胜负或进入下一轮
type resolveStageHandler struct {
	baseHandler
}

func NewResolveStageHandler() *resolveStageHandler {
	return &resolveStageHandler{}
}

func (rsh *resolveStageHandler) Stage() Phase {
	return PhaseRoundResolved
}

func (rsh *resolveStageHandler) OnEnter(ctx *GameContext) {
	rules := ctx.Rules

	delta := rules.SuspicionOnSuccess
	switch {
	case ctx.Round.ForcedLoss:
		delta = rules.SuspicionOnForcedLoss
	case ctx.Round.Outcome == OutcomeSabotaged:
		delta = rules.SuspicionOnSabotaged
	}

	level, _ := ctx.Suspicion.Advance(delta)

	zap.L().Debug(
		"本轮结算",
		zap.String("game_id", ctx.GameID),
		zap.Int("round", ctx.Round.Index),
		zap.String("outcome", string(ctx.Round.Outcome)),
		zap.Bool("forced_loss", ctx.Round.ForcedLoss),
		zap.Int("suspicion", level),
	)

	if winner, reason, ok := evaluateWinner(ctx); ok {
		ctx.Winner = winner
		ctx.WinReason = reason
		rsh.onSwitch(PhaseGameOver, string(reason))
		return
	}

	if err := ctx.startRound(ctx.Round.Index + 1); err != nil {
		// 规则校验保证在 MaxRounds 之内一定能决出胜负
		zap.L().Error("无法开始下一轮", zap.String("game_id", ctx.GameID), zap.Error(err))
		return
	}

	rsh.onSwitch(PhaseProposing, "NextRound")
}

func (rsh *resolveStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	return fmt.Errorf("%w: 正在结算", ErrWrongPhase)
}

// evaluateWinner 按固定顺序检查胜利条件，少数派的条件只可能由刚失败的一轮触发，因此优先检查
func evaluateWinner(ctx *GameContext) (Faction, WinReason, bool) {
	rules := ctx.Rules
	forced := len(ctx.ForcedLosses)
	failures := ctx.countMissions(OutcomeSabotaged) + forced

	switch {
	case forced >= rules.ForcedLossLimit:
		return FactionMinority, WinRejectionLimit, true
	case failures >= rules.FailuresToLose:
		return FactionMinority, WinMissionsSabotaged, true
	case ctx.Suspicion.IsMaxed():
		return FactionMinority, WinSuspicionMaxed, true
	case ctx.countMissions(OutcomeSuccess) >= rules.SuccessesToWin:
		return FactionMajority, WinMissionsSecured, true
	}

	return FactionUnset, "", false
}

// 终止阶段：结束与中止共用
type finishStageHandler struct {
	baseHandler
	stage Phase
}

func NewFinishStageHandler(stage Phase) *finishStageHandler {
	return &finishStageHandler{stage: stage}
}

func (fsh *finishStageHandler) Stage() Phase {
	return fsh.stage
}

func (fsh *finishStageHandler) OnEnter(ctx *GameContext) {
	zap.L().Info(
		"游戏结束",
		zap.String("game_id", ctx.GameID),
		zap.String("phase", string(fsh.stage)),
		zap.String("winner", string(ctx.Winner)),
		zap.String("reason", string(ctx.WinReason)),
		zap.String("abort_reason", ctx.AbortReason),
	)
}

func (fsh *finishStageHandler) OnHandle(ctx *GameContext, ev Event) error {
	return ErrGameFinished
}
