package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"mindnight-be/internal/service/game"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound  = errors.New("游戏不存在")
	ErrUnknownPreset = errors.New("未知的规则预设")
	ErrUnauthorized  = errors.New("玩家凭证无效")
)

// Event 是推送给订阅者的一次状态变化
type Event struct {
	Report game.Report     `json:"report"`
	State  game.PublicView `json:"state"`
}

type Options struct {
	Preset          string
	Timeouts        Timeouts
	GameTTL         time.Duration
	CleanupInterval time.Duration
}

type GameService struct {
	state  *gameServiceState
	timers *TimerService
	preset string
	ttl    time.Duration
}

type gameEntry struct {
	game *game.Game

	// 保证同一局游戏的事件按变更顺序推送
	opMu sync.Mutex

	mu sync.Mutex
	// 玩家 ID 是公开的，只有加入时拿到的令牌才能代表玩家操作
	tokens     map[string]string
	subs       map[int]chan Event
	nextSubID  int
	lastActive time.Time
}

type gameServiceState struct {
	mu sync.RWMutex

	// 从游戏 ID 到对局的映射，每局游戏互相独立
	games map[string]*gameEntry

	cleanUpDone chan struct{}
}

func NewGameService(opts Options) *GameService {
	state := &gameServiceState{
		games:       make(map[string]*gameEntry),
		cleanUpDone: make(chan struct{}),
	}

	gs := &GameService{
		state:  state,
		preset: opts.Preset,
		ttl:    opts.GameTTL,
	}
	gs.timers = NewTimerService(opts.Timeouts, gs.apply, gs.PublicState)

	// 启动一个 goroutine 定期清理过期的游戏
	if opts.CleanupInterval > 0 {
		go gs.startCleanupLoop(opts.CleanupInterval)
	}

	return gs
}

func (gs *GameService) startCleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-gs.state.cleanUpDone:
			return

		case now := <-ticker.C:
			gs.cleanup(now, interval)
		}
	}
}

func (gs *GameService) cleanup(now time.Time, interval time.Duration) {
	gs.state.mu.Lock()
	expired := make([]*gameEntry, 0)
	for gameID, entry := range gs.state.games {
		idle := now.Sub(entry.lastActiveAt())
		finished := entry.game.IsFinished()

		if (finished && idle >= interval) || (gs.ttl > 0 && idle >= gs.ttl) {
			zap.S().Infof("游戏 %s 已失效，开始清理", gameID)
			delete(gs.state.games, gameID)
			expired = append(expired, entry)
		}
	}
	gs.state.mu.Unlock()

	for _, entry := range expired {
		gs.timers.Cancel(entry.game.ID())
		entry.expire()
		entry.closeSubscribers()
	}
}

func (gs *GameService) Close() {
	close(gs.state.cleanUpDone)
	gs.timers.Close()
}

// CreateGame 创建一局新游戏，seed 为空时使用随机种子
func (gs *GameService) CreateGame(preset string, seed *uint64) (string, error) {
	if preset == "" {
		preset = gs.preset
	}

	rules, ok := game.RulesByPreset(preset)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}

	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}

	gameID := game.GenID()

	g, err := game.NewGame(gameID, rules, game.NewRand(s))
	if err != nil {
		return "", err
	}

	gs.state.mu.Lock()
	gs.state.games[gameID] = &gameEntry{
		game:       g,
		tokens:     make(map[string]string),
		subs:       make(map[int]chan Event),
		lastActive: time.Now(),
	}
	gs.state.mu.Unlock()

	zap.S().Infof("游戏 %s 已创建，规则预设 %s", gameID, preset)

	return gameID, nil
}

func (gs *GameService) lookup(gameID string) (*gameEntry, error) {
	gs.state.mu.RLock()
	defer gs.state.mu.RUnlock()

	entry, ok := gs.state.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	return entry, nil
}

// apply 是所有变更请求的唯一入口，玩家请求和超时代提交都经过这里
func (gs *GameService) apply(gameID string, op func(g *game.Game) (game.Report, error)) (game.Report, error) {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return game.Report{}, err
	}

	entry.opMu.Lock()
	defer entry.opMu.Unlock()

	report, err := op(entry.game)
	if err != nil {
		return report, err
	}

	entry.touch()

	view := entry.game.PublicState()
	entry.broadcast(Event{Report: report, State: view})

	if view.Phase.Terminal() {
		gs.timers.Cancel(gameID)
	} else {
		gs.timers.Arm(gameID, view)
	}

	return report, nil
}

// Join 返回玩家 ID 和只交给该玩家的令牌
func (gs *GameService) Join(gameID, playerName string) (string, string, error) {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return "", "", err
	}

	playerID := game.GenID()
	token := uuid.NewString()

	_, err = gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		report, err := g.AddPlayer(playerID, playerName)
		if err == nil {
			entry.setToken(playerID, token)
		}
		return report, err
	})
	if err != nil {
		return "", "", err
	}

	zap.S().Infof("游戏 %s 玩家 %s(%s) 加入", gameID, playerName, playerID)

	return playerID, token, nil
}

// Authorize 校验令牌是否属于该玩家，所有代表玩家的外部请求都要先经过这里
func (gs *GameService) Authorize(gameID, playerID, token string) error {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return err
	}

	if !entry.checkToken(playerID, token) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, playerID)
	}

	return nil
}

// Leave 在大厅阶段移除玩家，开局后只把玩家标记为离场
func (gs *GameService) Leave(gameID, playerID string) (game.Report, error) {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return game.Report{}, err
	}

	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		if g.Phase() == game.PhaseLobby {
			report, err := g.RemovePlayer(playerID)
			if err == nil {
				entry.dropToken(playerID)
			}
			return report, err
		}
		return g.Deactivate(playerID)
	})
}

func (gs *GameService) Start(gameID string) (game.Report, error) {
	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		return g.Start()
	})
}

func (gs *GameService) Propose(gameID, playerID string, nominees []string) (game.Report, error) {
	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		return g.ProposeTeam(playerID, nominees)
	})
}

func (gs *GameService) Pass(gameID, playerID string) (game.Report, error) {
	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		return g.PassProposal(playerID)
	})
}

func (gs *GameService) Vote(gameID, playerID string, approve bool) (game.Report, error) {
	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		return g.CastVote(playerID, approve)
	})
}

func (gs *GameService) Act(gameID, playerID string, action game.Action) (game.Report, error) {
	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		return g.SubmitMissionAction(playerID, action)
	})
}

func (gs *GameService) Abandon(gameID, reason string) (game.Report, error) {
	return gs.apply(gameID, func(g *game.Game) (game.Report, error) {
		return g.Abandon(reason)
	})
}

func (gs *GameService) PublicState(gameID string) (game.PublicView, error) {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return game.PublicView{}, err
	}

	return entry.game.PublicState(), nil
}

func (gs *GameService) PrivateState(gameID, playerID string) (game.PrivateView, error) {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return game.PrivateView{}, err
	}

	return entry.game.PrivateState(playerID)
}

// Subscribe 订阅游戏的状态变化，调用返回的函数取消订阅
func (gs *GameService) Subscribe(gameID string) (<-chan Event, func(), error) {
	entry, err := gs.lookup(gameID)
	if err != nil {
		return nil, nil, err
	}

	ch, id := entry.subscribe()

	return ch, func() { entry.unsubscribe(id) }, nil
}

// expire 中止被清理的游戏，并把最后的 Aborted 事件推送给订阅者
func (e *gameEntry) expire() {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.game.IsFinished() {
		return
	}

	report, err := e.game.Abandon("expired")
	if err != nil {
		return
	}

	zap.S().Infof("游戏 %s 长时间无操作，已中止", e.game.ID())

	e.broadcast(Event{Report: report, State: e.game.PublicState()})
}

func (e *gameEntry) setToken(playerID, token string) {
	e.mu.Lock()
	e.tokens[playerID] = token
	e.mu.Unlock()
}

func (e *gameEntry) dropToken(playerID string) {
	e.mu.Lock()
	delete(e.tokens, playerID)
	e.mu.Unlock()
}

func (e *gameEntry) checkToken(playerID, token string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	want, ok := e.tokens[playerID]
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

func (e *gameEntry) touch() {
	e.mu.Lock()
	e.lastActive = time.Now()
	e.mu.Unlock()
}

func (e *gameEntry) lastActiveAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastActive
}

func (e *gameEntry) subscribe() (chan Event, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Event, 64)
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = ch

	return ch, id
}

func (e *gameEntry) unsubscribe(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ch, ok := e.subs[id]; ok {
		delete(e.subs, id)
		close(ch)
	}
}

func (e *gameEntry) closeSubscribers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}

func (e *gameEntry) broadcast(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			zap.L().Warn(
				"推送事件失败：订阅通道已满",
				zap.String("game_id", ev.Report.GameID),
				zap.Int("subscriber", id),
			)
		}
	}
}
