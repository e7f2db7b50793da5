package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Game 是一局游戏的状态机。
// 所有变更请求都在同一把锁内串行执行，不同的 Game 之间没有共享的可变状态。
type Game struct {
	mu      sync.Mutex
	ctx     *GameContext
	handler StageHandler

	createdAt time.Time
}

// NewGame 创建一局处于大厅阶段的游戏，rng 是本局唯一的随机源
func NewGame(gameID string, rules Rules, rng *rand.Rand) (*Game, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: 缺少随机源", ErrInvalidRules)
	}

	g := &Game{
		ctx:       newGameContext(gameID, rules, rng),
		createdAt: time.Now(),
	}
	g.setHandler(NewLobbyStageHandler())

	return g, nil
}

// StartGame 用给定的名单直接开始一局游戏
func StartGame(gameID string, roster []string, rules Rules, rng *rand.Rand) (*Game, Report, error) {
	g, err := NewGame(gameID, rules, rng)
	if err != nil {
		return nil, Report{}, err
	}

	if _, _, err := rules.FactionSizes(len(roster)); err != nil {
		return nil, Report{}, err
	}

	for _, id := range roster {
		if _, err := g.AddPlayer(id, ""); err != nil {
			return nil, Report{}, err
		}
	}

	report, err := g.Start()
	if err != nil {
		return nil, Report{}, err
	}

	return g, report, nil
}

func (g *Game) ID() string {
	return g.ctx.GameID
}

func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.ctx.Phase
}

func (g *Game) IsFinished() bool {
	return g.Phase().Terminal()
}

func (g *Game) AddPlayer(playerID, name string) (Report, error) {
	return g.dispatch(Event{Kind: EV_JOIN, PlayerID: playerID, Name: name})
}

func (g *Game) RemovePlayer(playerID string) (Report, error) {
	return g.dispatch(Event{Kind: EV_LEAVE, PlayerID: playerID})
}

func (g *Game) Start() (Report, error) {
	return g.dispatch(Event{Kind: EV_START})
}

func (g *Game) ProposeTeam(proposerID string, nominees []string) (Report, error) {
	return g.dispatch(Event{Kind: EV_PROPOSE, PlayerID: proposerID, Nominees: nominees})
}

func (g *Game) PassProposal(proposerID string) (Report, error) {
	return g.dispatch(Event{Kind: EV_PASS, PlayerID: proposerID})
}

func (g *Game) CastVote(playerID string, approve bool) (Report, error) {
	return g.dispatch(Event{Kind: EV_VOTE, PlayerID: playerID, Approve: approve})
}

func (g *Game) SubmitMissionAction(playerID string, action Action) (Report, error) {
	return g.dispatch(Event{Kind: EV_ACTION, PlayerID: playerID, Action: action})
}

// Deactivate 标记玩家中途离场：不再等待其投票，未提交的任务行动按合作处理
func (g *Game) Deactivate(playerID string) (Report, error) {
	return g.dispatch(Event{Kind: EV_DEACTIVATE, PlayerID: playerID})
}

// Abandon 从任意非终止阶段直接进入 Aborted，不结算任何进行中的投票或任务
func (g *Game) Abandon(reason string) (Report, error) {
	return g.dispatch(Event{Kind: EV_ABANDON, Reason: reason})
}

func (g *Game) dispatch(ev Event) (Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx := g.ctx

	switch ev.Kind {
	case EV_ABANDON:
		if ctx.Phase.Terminal() {
			return Report{}, ErrGameFinished
		}

		ctx.AbortReason = ev.Reason
		ctx.record(ctx.Phase, PhaseAborted, EV_ABANDON)
		ctx.Phase = PhaseAborted

	case EV_DEACTIVATE:
		if err := g.deactivate(ev.PlayerID); err != nil {
			return Report{}, err
		}

	default:
		if err := g.handler.OnHandle(ctx, ev); err != nil {
			zap.L().Debug(
				"处理请求失败",
				zap.String("game_id", ctx.GameID),
				zap.String("stage", string(g.handler.Stage())),
				zap.String("event", ev.Kind),
				zap.String("player_id", ev.PlayerID),
				zap.Error(err),
			)
			return Report{}, err
		}
	}

	// 一个事件可能连续触发多次切换，例如最后一名队员行动后经过结算直接进入下一轮
	for ctx.Phase != g.handler.Stage() {
		if !g.switchStage() {
			break
		}
		g.handler.OnEnter(ctx)
	}

	return Report{
		GameID:      ctx.GameID,
		Event:       ev.Kind,
		PlayerID:    ev.PlayerID,
		Transitions: ctx.drainTransitions(),
	}, nil
}

func (g *Game) deactivate(playerID string) error {
	ctx := g.ctx

	switch ctx.Phase {
	case PhaseLobby:
		return fmt.Errorf("%w: 大厅阶段请直接离开", ErrWrongPhase)
	case PhaseGameOver, PhaseAborted:
		return ErrGameFinished
	}

	p, ok := ctx.Players[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if !p.Active {
		return nil
	}

	p.Active = false

	return g.handler.OnHandle(ctx, Event{Kind: EV_DEACTIVATE, PlayerID: playerID})
}

func (g *Game) switchStage() bool {
	var newHandler StageHandler

	switch g.ctx.Phase {
	case PhaseLobby:
		newHandler = NewLobbyStageHandler()
	case PhaseRoleAssignment:
		newHandler = NewRoleStageHandler()
	case PhaseProposing:
		newHandler = NewProposeStageHandler()
	case PhaseVoting:
		newHandler = NewVoteStageHandler()
	case PhaseMissionInProgress:
		newHandler = NewMissionStageHandler()
	case PhaseRoundResolved:
		newHandler = NewResolveStageHandler()
	case PhaseGameOver, PhaseAborted:
		newHandler = NewFinishStageHandler(g.ctx.Phase)
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("stage", string(g.ctx.Phase)),
		)
		return false
	}

	g.setHandler(newHandler)
	return true
}

func (g *Game) setHandler(h StageHandler) {
	h.SetOnSwitch(func(next Phase, cause string) {
		zap.L().Debug(
			"阶段切换",
			zap.String("game_id", g.ctx.GameID),
			zap.String("from", string(g.ctx.Phase)),
			zap.String("to", string(next)),
			zap.String("cause", cause),
		)

		g.ctx.record(g.ctx.Phase, next, cause)
		g.ctx.Phase = next
	})

	g.handler = h
}
