package game

import "fmt"

// StartRound 開始新的一輪；若上一輪以質疑結束，先結算交出的骰子
func (g *Game) StartRound() error {
	next, ok := Transition(g.state, EventStartRound)
	if !ok {
		return ErrWrongState
	}
	if g.state == StateChallenge {
		g.settleChallenge()
	}
	g.bid = nil
	g.bidder = -1
	g.challenger = -1
	for _, p := range g.players {
		if p.IsPlaying() {
			p.Roll(g.roller)
		}
	}
	if !g.currentPlayer().IsPlaying() {
		g.AdvanceTurn()
	}
	g.state = next
	return nil
}

// settleChallenge 依質疑結果讓每位玩家交出骰子
func (g *Game) settleChallenge() {
	for i, o := range g.outcomes() {
		g.players[i].Remove(-o.Adjustment)
	}
}

// AdvanceTurn 輪到下一位仍有骰子的玩家
func (g *Game) AdvanceTurn() {
	total := len(g.players)
	for step := 1; step <= total; step++ {
		idx := (g.turn + step) % total
		if g.players[idx].IsPlaying() {
			g.turn = idx
			return
		}
	}
	panic(fmt.Sprintf("game %s: 找不到仍在場的玩家", g.ID))
}

// PlaceBid 由目前玩家喊價，必須高於目前喊價
func (g *Game) PlaceBid(player string, count, face int) error {
	next, ok := Transition(g.state, EventBid)
	if !ok {
		return ErrWrongState
	}
	if err := g.ensureTurn(player); err != nil {
		return err
	}
	candidate := NewBid(count, face)
	if !candidate.Valid() {
		return ErrInvalidBid
	}
	if g.bid != nil && !candidate.Beats(*g.bid) {
		return ErrBidTooLow
	}
	g.bid = &candidate
	g.bidder = g.turn
	g.state = next
	g.AdvanceTurn()
	return nil
}

// Challenge 由目前玩家質疑上一個喊價
//
// 此時只計算結果並決定下一個狀態與輪次，骰子在下一次 StartRound 才實際移除。
func (g *Game) Challenge(player string) error {
	if g.state != StateRoundStarted {
		return ErrWrongState
	}
	if g.bid == nil {
		return ErrNoBid
	}
	if err := g.ensureTurn(player); err != nil {
		return err
	}

	g.challenger = g.turn
	offset := g.bid.Evaluate(g.pool())
	event := EventChallenge
	if len(g.survivors()) == 1 {
		event = EventFinish
	}
	next, _ := Transition(g.state, event)
	g.state = next
	if offset >= 0 {
		g.turn = g.bidder
	}
	return nil
}

// survivors 回傳結算後仍有骰子的玩家索引
func (g *Game) survivors() []int {
	var idx []int
	for i, o := range g.outcomes() {
		if g.players[i].HandSize()+o.Adjustment > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Winner 終局時回傳唯一留下的玩家
//
// 骰子在下一次 StartRound 才移除，終局時每位玩家的 IsPlaying 仍為 true；
// 是否出局只能由 survivors 判斷。
func (g *Game) Winner() (string, bool) {
	if g.state != StateFinished || g.bid == nil {
		return "", false
	}
	left := g.survivors()
	if len(left) != 1 {
		return "", false
	}
	return g.players[left[0]].Name, true
}

func (g *Game) ensureTurn(player string) error {
	idx := g.indexOf(player)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	if idx != g.turn {
		return ErrNotYourTurn
	}
	return nil
}
