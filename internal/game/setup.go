package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var (
	// ErrWrongState 目前狀態不允許此操作
	ErrWrongState = errors.New("目前牌局狀態不允許此操作")
	// ErrNotYourTurn 尚未輪到該玩家
	ErrNotYourTurn = errors.New("尚未輪到你行動")
	// ErrInvalidBid 喊價數量或點數不合法
	ErrInvalidBid = errors.New("喊價不合法")
	// ErrBidTooLow 喊價必須高於目前喊價
	ErrBidTooLow = errors.New("喊價必須高於目前喊價")
	// ErrNoBid 尚無可質疑的喊價
	ErrNoBid = errors.New("目前沒有可質疑的喊價")
	// ErrUnknownPlayer 玩家不在此牌局中
	ErrUnknownPlayer = errors.New("玩家不在此牌局中")
	// ErrDuplicatePlayer 玩家名稱重複
	ErrDuplicatePlayer = errors.New("玩家名稱已存在")
	// ErrJoinClosed 牌局進行中不可加入
	ErrJoinClosed = errors.New("牌局進行中，無法加入")
	// ErrNotEnoughPlayers 開局至少需要兩名玩家
	ErrNotEnoughPlayers = errors.New("至少需要兩名玩家才能開局")
)

const (
	// HandSize 每位玩家開局時的骰子數
	HandSize   = 5
	minPlayers = 2
)

// RandRoller 以 math/rand 擲骰，可安全地被多個 goroutine 呼叫
type RandRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandRoller 建立擲骰器；seed 為 0 時以目前時間為種子
func NewRandRoller(seed int64) *RandRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(MaxFace) + 1
}

// NewGame 建立尚未開始的牌局
func NewGame(id string, roller Roller) *Game {
	if roller == nil {
		roller = NewRandRoller(0)
	}
	return &Game{
		ID:         id,
		state:      StateNotStarted,
		roller:     roller,
		bidder:     -1,
		challenger: -1,
	}
}

// AddPlayer 加入一名沒有骰子的玩家；僅限開局前或終局後
func (g *Game) AddPlayer(name string) error {
	if g.state != StateNotStarted && g.state != StateFinished {
		return ErrJoinClosed
	}
	if g.indexOf(name) >= 0 {
		return ErrDuplicatePlayer
	}
	g.players = append(g.players, &Player{Name: name})
	return nil
}

// StartGame 開局（或終局後再來一局），每位玩家重新拿到完整的骰子
func (g *Game) StartGame() error {
	next, ok := Transition(g.state, EventStartGame)
	if !ok {
		return ErrWrongState
	}
	if len(g.players) < minPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range g.players {
		p.Hand = make(Hand, HandSize)
	}
	if g.turn < 0 || g.turn >= len(g.players) {
		g.turn = 0
	}
	g.bid = nil
	g.bidder = -1
	g.challenger = -1
	g.state = next
	return nil
}
