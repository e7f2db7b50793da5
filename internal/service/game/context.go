package game

import (
	"math/rand/v2"
	"slices"
)

// Round 是一轮游戏：若干次提名，至多一次任务
type Round struct {
	Index     int
	TeamSize  int
	Threshold int

	Attempts   []*ProposalAttempt
	Rejections int
	Mission    *Mission

	// 本轮结果，未结算时为空
	Outcome    MissionOutcome
	ForcedLoss bool
}

func (r *Round) CurrentAttempt() *ProposalAttempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return r.Attempts[len(r.Attempts)-1]
}

// MissionRecord 是已结算任务的公开记录，不包含任何玩家的具体行动
type MissionRecord struct {
	Round     int            `json:"round"`
	Team      []string       `json:"team"`
	Outcome   MissionOutcome `json:"outcome"`
	Sabotages int            `json:"sabotages"`
}

// GameContext 持有一局游戏的全部数据，只由状态机在持锁时读写
type GameContext struct {
	GameID string
	Phase  Phase
	Rules  Rules

	Players map[string]*Player
	// 加入顺序
	Roster []string

	rng        *rand.Rand
	assignment map[string]Faction

	Proposals *ProposalManager
	Suspicion *SuspicionTrack

	Round  *Round
	Rounds []*Round

	// 以下记录只追加不修改
	Missions     []MissionRecord
	ForcedLosses []int

	Winner      Faction
	WinReason   WinReason
	AbortReason string

	transitions []Transition
}

func newGameContext(gameID string, rules Rules, rng *rand.Rand) *GameContext {
	return &GameContext{
		GameID:    gameID,
		Phase:     PhaseLobby,
		Rules:     rules,
		Players:   make(map[string]*Player),
		Roster:    make([]string, 0, rules.MaxPlayers()),
		rng:       rng,
		Suspicion: NewSuspicionTrack(rules.MaxSuspicion),
	}
}

func (gc *GameContext) isActive(playerID string) bool {
	p, ok := gc.Players[playerID]
	return ok && p.Active
}

func (gc *GameContext) activeIDs() []string {
	ids := make([]string, 0, len(gc.Roster))
	for _, id := range gc.Roster {
		if gc.isActive(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (gc *GameContext) factionOf(playerID string) Faction {
	if p, ok := gc.Players[playerID]; ok {
		return p.Faction
	}
	return FactionUnset
}

func (gc *GameContext) membersOf(faction Faction) []string {
	ids := make([]string, 0, len(gc.Roster))
	for _, id := range gc.Roster {
		if gc.factionOf(id) == faction {
			ids = append(ids, id)
		}
	}
	return ids
}

func (gc *GameContext) countMissions(outcome MissionOutcome) int {
	n := 0
	for _, m := range gc.Missions {
		if m.Outcome == outcome {
			n++
		}
	}
	return n
}

// startRound 开始新的一轮，提名者沿用上一次轮换的结果
func (gc *GameContext) startRound(index int) error {
	size, err := gc.Rules.TeamSize(len(gc.Roster), index)
	if err != nil {
		return err
	}
	threshold, err := gc.Rules.SabotageThreshold(len(gc.Roster), index)
	if err != nil {
		return err
	}

	gc.Round = &Round{
		Index:     index,
		TeamSize:  size,
		Threshold: threshold,
	}
	gc.Rounds = append(gc.Rounds, gc.Round)

	return nil
}

func (gc *GameContext) roundIndex() int {
	if gc.Round == nil {
		return 0
	}
	return gc.Round.Index
}

func (gc *GameContext) record(from, to Phase, cause string) {
	gc.transitions = append(gc.transitions, Transition{
		From:  from,
		To:    to,
		Round: gc.roundIndex(),
		Cause: cause,
	})
}

func (gc *GameContext) drainTransitions() []Transition {
	out := slices.Clone(gc.transitions)
	gc.transitions = gc.transitions[:0]
	return out
}
