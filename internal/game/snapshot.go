package game

import "fmt"

// PlayerView 單一玩家的對外呈現；結果欄位只在攤牌後出現
type PlayerView struct {
	Name       string `json:"name"`
	Hand       []int  `json:"hand"`
	Adjustment *int   `json:"adjustment,omitempty"`
	Winner     *bool  `json:"winner,omitempty"`
	Loser      *bool  `json:"loser,omitempty"`
}

// Status 某位玩家視角的牌局狀態
type Status struct {
	Turn    string       `json:"turn"`
	State   State        `json:"state"`
	Bid     *Bid         `json:"bid,omitempty"`
	Players []PlayerView `json:"players"`
}

// Status 建立指定玩家視角的狀態；回合進行中只顯示自己的骰子
func (g *Game) Status(viewer string) Status {
	status := Status{
		Turn:    g.Turn(),
		State:   g.state,
		Players: make([]PlayerView, 0, len(g.players)),
	}
	if g.bid != nil {
		b := *g.bid
		status.Bid = &b
	}

	var outcomes []Outcome
	if g.state.revealed() && g.bid != nil {
		outcomes = g.outcomes()
	}
	for i, p := range g.players {
		if outcomes != nil {
			status.Players = append(status.Players, revealedView(p, outcomes[i]))
		} else {
			status.Players = append(status.Players, maskedView(p, p.Name == viewer))
		}
	}
	return status
}

func maskedView(p *Player, own bool) PlayerView {
	hand := make([]int, len(p.Hand))
	if own {
		copy(hand, p.Hand)
	}
	return PlayerView{Name: p.Name, Hand: hand}
}

func revealedView(p *Player, o Outcome) PlayerView {
	adjustment, winner, loser := o.Adjustment, o.Winner, o.Loser
	return PlayerView{
		Name:       p.Name,
		Hand:       append([]int{}, p.Hand...),
		Adjustment: &adjustment,
		Winner:     &winner,
		Loser:      &loser,
	}
}

// PlayerRecord 玩家的保存格式
type PlayerRecord struct {
	Name string `json:"name"`
	Hand []int  `json:"hand"`
}

// Record 牌局的保存格式
type Record struct {
	ID         string         `json:"game"`
	State      State          `json:"state"`
	Players    []PlayerRecord `json:"players"`
	Bid        Bid            `json:"bid"`
	Turn       int            `json:"turn"`
	Bidder     int            `json:"bidder"`
	Challenger int            `json:"challenger"`
}

// Record 匯出完整牌局（含所有骰子）以便保存
func (g *Game) Record() Record {
	rec := Record{
		ID:         g.ID,
		State:      g.state,
		Players:    make([]PlayerRecord, len(g.players)),
		Turn:       g.turn,
		Bidder:     g.bidder,
		Challenger: g.challenger,
	}
	if g.bid != nil {
		rec.Bid = *g.bid
	}
	for i, p := range g.players {
		rec.Players[i] = PlayerRecord{Name: p.Name, Hand: append([]int{}, p.Hand...)}
	}
	return rec
}

// Restore 由保存格式還原牌局
func Restore(rec Record, roller Roller) (*Game, error) {
	g := NewGame(rec.ID, roller)
	for _, pr := range rec.Players {
		if g.indexOf(pr.Name) >= 0 {
			return nil, fmt.Errorf("牌局 %s 玩家 %s 重複", rec.ID, pr.Name)
		}
		if len(pr.Hand) > HandSize {
			return nil, fmt.Errorf("牌局 %s 玩家 %s 骰子數 %d 超過上限", rec.ID, pr.Name, len(pr.Hand))
		}
		for _, d := range pr.Hand {
			if d < 0 || d > MaxFace {
				return nil, fmt.Errorf("牌局 %s 玩家 %s 有不合法的點數 %d", rec.ID, pr.Name, d)
			}
		}
		g.players = append(g.players, &Player{Name: pr.Name, Hand: append(Hand{}, pr.Hand...)})
	}

	inRange := func(i int) bool { return i >= 0 && i < len(g.players) }
	if len(g.players) > 0 && !inRange(rec.Turn) {
		return nil, fmt.Errorf("牌局 %s 輪次索引 %d 超出範圍", rec.ID, rec.Turn)
	}
	bid := NewBid(rec.Bid.Count, rec.Bid.Face)
	if bid.Valid() && !inRange(rec.Bidder) {
		return nil, fmt.Errorf("牌局 %s 有喊價但缺少喊價者", rec.ID)
	}
	if rec.State == StateChallenge || rec.State == StateFinished {
		if !bid.Valid() || !inRange(rec.Challenger) || rec.Bidder == rec.Challenger {
			return nil, fmt.Errorf("牌局 %s 缺少質疑資訊", rec.ID)
		}
		if !g.players[rec.Bidder].IsPlaying() || !g.players[rec.Challenger].IsPlaying() {
			return nil, fmt.Errorf("牌局 %s 的喊價者或質疑者已出局", rec.ID)
		}
	}
	// 開局後輪到的玩家必須仍有骰子
	if rec.State != StateNotStarted {
		if !inRange(rec.Turn) || !g.players[rec.Turn].IsPlaying() {
			return nil, fmt.Errorf("牌局 %s 輪到的玩家沒有骰子", rec.ID)
		}
	}

	g.state = rec.State
	g.turn = rec.Turn
	if bid.Valid() {
		g.bid = &bid
	}
	if inRange(rec.Bidder) {
		g.bidder = rec.Bidder
	}
	if inRange(rec.Challenger) {
		g.challenger = rec.Challenger
	}
	return g, nil
}
