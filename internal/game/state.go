package game

import (
	"encoding/json"
	"fmt"
)

// State 牌局狀態
type State int

const (
	StateNotStarted State = iota
	StateStarted
	StateRoundStarted
	StateChallenge
	StateFinished
)

var stateNames = map[State]string{
	StateNotStarted:   "GAME_NOT_STARTED",
	StateStarted:      "GAME_STARTED",
	StateRoundStarted: "ROUND_STARTED",
	StateChallenge:    "CHALLENGE",
	StateFinished:     "GAME_FINISHED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState 將狀態名稱轉回 State
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return StateNotStarted, fmt.Errorf("未知的牌局狀態 %q", name)
}

// revealed 質疑或終局時攤開所有骰子
func (s State) revealed() bool {
	return s == StateChallenge || s == StateFinished
}

// Event 驅動狀態轉移的事件
type Event int

const (
	EventStartGame Event = iota
	EventStartRound
	EventBid
	EventChallenge
	EventFinish
)

var transitions = map[State]map[Event]State{
	StateNotStarted: {
		EventStartGame: StateStarted,
	},
	StateStarted: {
		EventStartRound: StateRoundStarted,
	},
	StateRoundStarted: {
		EventBid:       StateRoundStarted,
		EventChallenge: StateChallenge,
		EventFinish:    StateFinished,
	},
	StateChallenge: {
		EventStartRound: StateRoundStarted,
	},
	StateFinished: {
		EventStartGame: StateStarted,
	},
}

// Transition 查表取得下一個狀態；不合法時 ok 為 false
func Transition(current State, event Event) (next State, ok bool) {
	next, ok = transitions[current][event]
	return next, ok
}

// Game 表示一桌牌局
type Game struct {
	ID      string
	players []*Player
	turn    int
	bid     *Bid
	state   State
	roller  Roller

	// 質疑時的喊價者與質疑者，以座位索引記錄
	bidder     int
	challenger int
}

// State 回傳目前狀態
func (g *Game) State() State {
	return g.state
}

// CurrentBid 回傳目前喊價；尚無喊價時 ok 為 false
func (g *Game) CurrentBid() (Bid, bool) {
	if g.bid == nil {
		return Bid{}, false
	}
	return *g.bid, true
}

// Turn 回傳目前輪到的玩家名稱
func (g *Game) Turn() string {
	if g.turn < 0 || g.turn >= len(g.players) {
		return ""
	}
	return g.players[g.turn].Name
}

// PlayerNames 依座位順序回傳玩家名稱
func (g *Game) PlayerNames() []string {
	names := make([]string, len(g.players))
	for i, p := range g.players {
		names[i] = p.Name
	}
	return names
}

// HandOf 回傳指定玩家手牌的副本
func (g *Game) HandOf(name string) (Hand, bool) {
	idx := g.indexOf(name)
	if idx < 0 {
		return nil, false
	}
	return append(Hand(nil), g.players[idx].Hand...), true
}

// TotalDice 回傳桌面上的骰子總數（公開資訊）
func (g *Game) TotalDice() int {
	total := 0
	for _, p := range g.players {
		total += p.HandSize()
	}
	return total
}

// ActivePlayers 回傳仍在場的玩家數
func (g *Game) ActivePlayers() int {
	n := 0
	for _, p := range g.players {
		if p.IsPlaying() {
			n++
		}
	}
	return n
}

func (g *Game) indexOf(name string) int {
	for i, p := range g.players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (g *Game) currentPlayer() *Player {
	return g.players[g.turn]
}

// pool 收集所有在場玩家的骰子
func (g *Game) pool() []int {
	all := make([]int, 0, g.TotalDice())
	for _, p := range g.players {
		if p.IsPlaying() {
			all = append(all, p.Hand...)
		}
	}
	return all
}

func (g *Game) roleOf(idx int) Role {
	switch idx {
	case g.bidder:
		return RoleBidder
	case g.challenger:
		return RoleChallenger
	default:
		return RoleBystander
	}
}

// outcomes 計算目前喊價被質疑後每位玩家的結果
func (g *Game) outcomes() []Outcome {
	offset := g.bid.Evaluate(g.pool())
	result := make([]Outcome, len(g.players))
	for i := range g.players {
		result[i] = resolveOutcome(offset, g.roleOf(i))
	}
	return result
}
