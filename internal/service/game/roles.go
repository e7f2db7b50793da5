package game

import (
	"fmt"
	"math/rand/v2"
)

// AssignRoles 将玩家随机划分为两个阵营。
// 洗牌后取前 minority 个玩家作为少数派，因此每一种划分出现的概率相同，
// 与玩家在名单中的顺序以及玩家 ID 无关。
func AssignRoles(rules Rules, playerIDs []string, rng *rand.Rand) (map[string]Faction, error) {
	_, minority, err := rules.FactionSizes(len(playerIDs))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
		}
		seen[id] = struct{}{}
	}

	shuffled := append([]string(nil), playerIDs...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assigned := make(map[string]Faction, len(shuffled))
	for i, id := range shuffled {
		if i < minority {
			assigned[id] = FactionMinority
		} else {
			assigned[id] = FactionMajority
		}
	}

	return assigned, nil
}
