package service

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"mindnight-be/internal/service/game"

	"go.uber.org/zap"
)

// Timeouts 为 0 的阶段不限时
type Timeouts struct {
	Propose time.Duration
	Vote    time.Duration
	Action  time.Duration
}

type applyFunc func(gameID string, op func(g *game.Game) (game.Report, error)) (game.Report, error)

type viewFunc func(gameID string) (game.PublicView, error)

// TimerService 在玩家超时后代替玩家提交默认输入。
// 引擎本身从不计时，这里只是通过和玩家相同的入口提交请求。
type TimerService struct {
	mu       sync.Mutex
	timers   map[string]*armedTimer
	timeouts Timeouts
	rng      *rand.Rand
	apply    applyFunc
	view     viewFunc
	closed   bool
}

type armedTimer struct {
	timer *time.Timer
	token string
}

func NewTimerService(timeouts Timeouts, apply applyFunc, view viewFunc) *TimerService {
	return &TimerService{
		timers:   make(map[string]*armedTimer),
		timeouts: timeouts,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		apply:    apply,
		view:     view,
	}
}

// phaseToken 唯一标识一次等待：阶段、轮次、第几次提名和当前提名者
func phaseToken(view game.PublicView) string {
	attempts := 0
	if n := len(view.Rounds); n > 0 {
		attempts = len(view.Rounds[n-1].Attempts)
	}
	return fmt.Sprintf("%s/%d/%d/%s", view.Phase, view.Round, attempts, view.Proposer)
}

func (ts *TimerService) timeoutFor(phase game.Phase) time.Duration {
	switch phase {
	case game.PhaseProposing:
		return ts.timeouts.Propose
	case game.PhaseVoting:
		return ts.timeouts.Vote
	case game.PhaseMissionInProgress:
		return ts.timeouts.Action
	default:
		return 0
	}
}

// Arm 在进入新的等待时重新计时，同一次等待中的后续变化不会重置计时器
func (ts *TimerService) Arm(gameID string, view game.PublicView) {
	token := phaseToken(view)

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return
	}

	if t, ok := ts.timers[gameID]; ok {
		if t.token == token {
			return
		}
		t.timer.Stop()
		delete(ts.timers, gameID)
	}

	d := ts.timeoutFor(view.Phase)
	if d <= 0 {
		return
	}

	ts.timers[gameID] = &armedTimer{
		token: token,
		timer: time.AfterFunc(d, func() {
			ts.expire(gameID, token)
		}),
	}
}

func (ts *TimerService) Cancel(gameID string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.timers[gameID]; ok {
		t.timer.Stop()
		delete(ts.timers, gameID)
	}
}

func (ts *TimerService) Close() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.closed = true
	for gameID, t := range ts.timers {
		t.timer.Stop()
		delete(ts.timers, gameID)
	}
}

func (ts *TimerService) expire(gameID, token string) {
	ts.mu.Lock()
	t, ok := ts.timers[gameID]
	if !ok || t.token != token {
		ts.mu.Unlock()
		return
	}
	delete(ts.timers, gameID)
	ts.mu.Unlock()

	view, err := ts.view(gameID)
	if err != nil || phaseToken(view) != token {
		// 游戏已被清理或已经进入下一次等待
		return
	}

	zap.L().Info(
		"等待超时，提交默认输入",
		zap.String("game_id", gameID),
		zap.String("phase", string(view.Phase)),
		zap.Int("round", view.Round),
	)

	switch view.Phase {
	case game.PhaseProposing:
		team := ts.randomTeam(view)
		ts.submit(gameID, func(g *game.Game) (game.Report, error) {
			return g.ProposeTeam(view.Proposer, team)
		})

	case game.PhaseVoting:
		for _, playerID := range view.AwaitingVotes {
			ts.submit(gameID, func(g *game.Game) (game.Report, error) {
				return g.CastVote(playerID, false)
			})
		}

	case game.PhaseMissionInProgress:
		for _, playerID := range view.AwaitingActions {
			ts.submit(gameID, func(g *game.Game) (game.Report, error) {
				return g.SubmitMissionAction(playerID, game.ActionCooperate)
			})
		}
	}
}

func (ts *TimerService) submit(gameID string, op func(g *game.Game) (game.Report, error)) {
	if _, err := ts.apply(gameID, op); err != nil {
		// 玩家可能恰好在超时的同时提交了输入
		zap.L().Debug(
			"超时代提交失败",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

// randomTeam 从在场玩家中随机选出本轮所需人数的队伍
func (ts *TimerService) randomTeam(view game.PublicView) []string {
	candidates := make([]string, 0, len(view.Players))
	for _, p := range view.Players {
		if p.Active {
			candidates = append(candidates, p.ID)
		}
	}

	ts.mu.Lock()
	ts.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	ts.mu.Unlock()

	if len(candidates) > view.RequiredSize {
		candidates = candidates[:view.RequiredSize]
	}

	return candidates
}
