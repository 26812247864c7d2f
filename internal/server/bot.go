package server

import (
	"log"
	"math"
	"sort"
	"time"

	"bluffdice/internal/game"
)

// BotPlayer 代表由伺服器操作的玩家
type BotPlayer struct {
	Name string
}

// botMove 機器人的決定：質疑或喊出 Bid
type botMove struct {
	Challenge bool
	Bid       game.Bid
}

// expectedMatches 估計桌面上符合 face 的骰子數：自己的骰子加上未知骰子的期望值
func expectedMatches(hand game.Hand, unknown, face int) float64 {
	own := 0
	for _, d := range hand {
		if d == face || d == game.WildFace {
			own++
		}
	}
	p := 1.0 / 3
	if face == game.WildFace {
		p = 1.0 / 6
	}
	return float64(own) + float64(unknown)*p
}

// minimalCount 該點數要勝過 current 所需的最少數量
func minimalCount(current game.Bid, face int) int {
	score := current.Score()
	if face == game.WildFace {
		return score/20 + 1
	}
	return (score-face)/10 + 1
}

// chooseBotMove 依自己的骰子與桌面總骰數決定行動
func chooseBotMove(hand game.Hand, totalDice int, current game.Bid, hasBid bool) botMove {
	unknown := max(totalDice-len(hand), 0)
	if hasBid && float64(current.Count) > expectedMatches(hand, unknown, current.Face)+0.5 {
		return botMove{Challenge: true}
	}
	if !hasBid {
		current = game.Bid{}
	}

	faces := []int{1, 2, 3, 4, 5, 6}
	expected := make(map[int]float64, len(faces))
	for _, f := range faces {
		expected[f] = expectedMatches(hand, unknown, f)
	}
	// 先考慮最有把握的點數
	sort.SliceStable(faces, func(i, j int) bool {
		return expected[faces[i]] > expected[faces[j]]
	})
	for _, f := range faces {
		count := minimalCount(current, f)
		if count <= int(math.Floor(expected[f]+0.5)) {
			return botMove{Bid: game.NewBid(count, f)}
		}
	}
	if hasBid {
		return botMove{Challenge: true}
	}
	return botMove{Bid: game.NewBid(1, mostCommonFace(hand))}
}

func mostCommonFace(hand game.Hand) int {
	counts := make(map[int]int)
	best := game.MinFace
	for _, d := range hand {
		counts[d]++
		if counts[d] > counts[best] || (counts[d] == counts[best] && d > best) {
			best = d
		}
	}
	return best
}

// scheduleBotLocked 若輪到機器人，延遲後替它行動
func (t *Table) scheduleBotLocked() {
	t.stopBotLocked()
	if t.engine.closed.Load() {
		return
	}
	name := t.game.Turn()
	if !t.isBot(name) {
		return
	}
	delay := t.engine.botDelay
	switch t.game.State() {
	case game.StateStarted, game.StateRoundStarted:
	case game.StateChallenge:
		// 留時間讓玩家看攤牌結果
		delay *= 2
	default:
		return
	}
	t.botTimer = time.AfterFunc(delay, func() {
		t.runBot(name)
	})
}

func (t *Table) stopBotLocked() {
	if t.botTimer != nil {
		t.botTimer.Stop()
		t.botTimer = nil
	}
}

// recoverBot 記錄並攔下機器人行動中的 panic
func (t *Table) recoverBot(name string) {
	if r := recover(); r != nil {
		log.Printf("機器人 %s 在牌局 %s 行動時發生 panic: %v", name, t.game.ID, r)
	}
}

func (t *Table) runBot(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.recoverBot(name)

	g := t.game
	if g.Turn() != name || !t.isBot(name) {
		return
	}

	var err error
	switch g.State() {
	case game.StateStarted, game.StateChallenge:
		err = g.StartRound()
	case game.StateRoundStarted:
		hand, _ := g.HandOf(name)
		current, hasBid := g.CurrentBid()
		move := chooseBotMove(hand, g.TotalDice(), current, hasBid)
		if move.Challenge {
			log.Printf("機器人 %s 質疑 %s", name, current.String())
			err = g.Challenge(name)
		} else {
			log.Printf("機器人 %s 喊 %s", name, move.Bid.String())
			err = g.PlaceBid(name, move.Bid.Count, move.Bid.Face)
		}
	default:
		return
	}
	if err != nil {
		log.Printf("機器人 %s 在牌局 %s 行動失敗: %v", name, g.ID, err)
		return
	}
	t.changedLocked()
}
