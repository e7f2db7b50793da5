package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"

	"mindnight-be/internal/service/game"

	"github.com/pterm/pterm"
)

// 每局最多处理的请求数，防止规则配置错误时死循环
const maxSteps = 10000

type result struct {
	winner   game.Faction
	reason   game.WinReason
	rounds   int
	minority []int
}

// bot 的决策全部来自同一个随机源，相同的种子得到相同的结果
type bot struct {
	rng *rand.Rand

	approveRate  float64
	sabotageRate float64
}

func (b *bot) team(view game.PublicView) []string {
	ids := make([]string, 0, len(view.Players))
	for _, p := range view.Players {
		if p.Active {
			ids = append(ids, p.ID)
		}
	}
	b.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids[:view.RequiredSize]
}

func (b *bot) vote(faction game.Faction, team []string, minority map[string]bool) bool {
	if faction == game.FactionMinority {
		// 少数派只支持包含同伴的队伍
		for _, id := range team {
			if minority[id] {
				return true
			}
		}
		return false
	}
	return b.rng.Float64() < b.approveRate
}

func (b *bot) action(faction game.Faction) game.Action {
	if faction == game.FactionMinority && b.rng.Float64() < b.sabotageRate {
		return game.ActionSabotage
	}
	return game.ActionCooperate
}

func playOne(index int, players int, rules game.Rules, seed uint64, logger *slog.Logger) (result, error) {
	roster := make([]string, players)
	for i := range roster {
		roster[i] = "p" + strconv.Itoa(i+1)
	}

	g, _, err := game.StartGame(fmt.Sprintf("sim-%d", index), roster, rules, game.NewRand(seed))
	if err != nil {
		return result{}, err
	}

	b := &bot{
		rng:          game.NewRand(seed + 1),
		approveRate:  0.6,
		sabotageRate: 0.8,
	}

	factions := make(map[string]game.Faction, players)
	minority := make(map[string]bool, players)
	res := result{}
	for seat, id := range roster {
		view, err := g.PrivateState(id)
		if err != nil {
			return result{}, err
		}
		factions[id] = view.Faction
		if view.Faction == game.FactionMinority {
			minority[id] = true
			res.minority = append(res.minority, seat)
		}
	}

	for step := 0; step < maxSteps; step++ {
		view := g.PublicState()

		switch view.Phase {
		case game.PhaseProposing:
			_, err = g.ProposeTeam(view.Proposer, b.team(view))

		case game.PhaseVoting:
			for _, id := range view.AwaitingVotes {
				if _, err = g.CastVote(id, b.vote(factions[id], view.CurrentTeam, minority)); err != nil {
					break
				}
			}

		case game.PhaseMissionInProgress:
			for _, id := range view.AwaitingActions {
				if _, err = g.SubmitMissionAction(id, b.action(factions[id])); err != nil {
					break
				}
			}

		case game.PhaseGameOver:
			res.winner = view.Winner
			res.reason = view.WinReason
			res.rounds = view.Round
			logger.Debug("game finished",
				"game", view.GameID,
				"winner", string(view.Winner),
				"reason", string(view.WinReason),
				"rounds", view.Round,
			)
			return res, nil

		default:
			return result{}, fmt.Errorf("unexpected phase %s", view.Phase)
		}

		if err != nil {
			return result{}, err
		}
	}

	return result{}, fmt.Errorf("game %d did not finish within %d steps", index, maxSteps)
}

func main() {
	gamesFlag := flag.Int("games", 1000, "number of games to simulate")
	playersFlag := flag.Int("players", 5, "players per game")
	seedFlag := flag.Uint64("seed", 1, "base random seed")
	presetFlag := flag.String("preset", "default", "rules preset: default or classic")
	verboseFlag := flag.Bool("v", false, "log every finished game")
	flag.Parse()

	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))
	if *verboseFlag {
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	}

	rules, ok := game.RulesByPreset(*presetFlag)
	if !ok {
		logger.Error("unknown preset", "preset", *presetFlag)
		os.Exit(1)
	}

	if _, _, err := rules.FactionSizes(*playersFlag); err != nil {
		logger.Error("invalid player count", "players", *playersFlag, "error", err)
		os.Exit(1)
	}

	pterm.DefaultSection.Printfln("Simulating %d games, %d players, preset %s", *gamesFlag, *playersFlag, *presetFlag)

	wins := make(map[game.Faction]int)
	reasons := make(map[game.WinReason]int)
	seats := make([]int, *playersFlag)
	totalRounds := 0

	progress, _ := pterm.DefaultProgressbar.WithTotal(*gamesFlag).WithTitle("Playing").Start()

	for i := 0; i < *gamesFlag; i++ {
		res, err := playOne(i, *playersFlag, rules, *seedFlag+uint64(i)*2, logger)
		if err != nil {
			progress.Stop()
			logger.Error("simulation failed", "game", i, "error", err)
			os.Exit(1)
		}

		wins[res.winner]++
		reasons[res.reason]++
		totalRounds += res.rounds
		for _, seat := range res.minority {
			seats[seat]++
		}

		progress.Increment()
	}

	progress.Stop()

	pct := func(n int) string {
		if *gamesFlag == 0 {
			return "-"
		}
		return fmt.Sprintf("%.1f%%", float64(n)*100/float64(*gamesFlag))
	}

	winners := pterm.TableData{{"Winner", "Games", "Share"}}
	for _, f := range []game.Faction{game.FactionMajority, game.FactionMinority} {
		winners = append(winners, []string{string(f), strconv.Itoa(wins[f]), pct(wins[f])})
	}
	pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(winners).Render()

	reasonKeys := make([]string, 0, len(reasons))
	for r := range reasons {
		reasonKeys = append(reasonKeys, string(r))
	}
	sort.Strings(reasonKeys)

	reasonTable := pterm.TableData{{"Reason", "Games", "Share"}}
	for _, r := range reasonKeys {
		n := reasons[game.WinReason(r)]
		reasonTable = append(reasonTable, []string{r, strconv.Itoa(n), pct(n)})
	}
	pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(reasonTable).Render()

	// 每个座位成为少数派的频率应接近 少数派人数/总人数
	_, minority, _ := rules.FactionSizes(*playersFlag)
	expected := float64(minority) / float64(*playersFlag)

	seatTable := pterm.TableData{{"Seat", "Minority", "Frequency", "Expected"}}
	for seat, n := range seats {
		seatTable = append(seatTable, []string{
			"p" + strconv.Itoa(seat+1),
			strconv.Itoa(n),
			pct(n),
			fmt.Sprintf("%.1f%%", expected*100),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(seatTable).Render()

	if *gamesFlag > 0 {
		pterm.Info.Printfln("Average rounds per game: %.2f", float64(totalRounds)/float64(*gamesFlag))
	}
}
