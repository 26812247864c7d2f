package game

import (
	"cmp"
	"fmt"
)

const (
	// WildFace 萬用點數，計入任何喊價的點數
	WildFace = 6
	MinFace  = 1
	MaxFace  = 6
)

// Bid 表示一次喊價：桌面上至少有 Count 顆 Face 點（含萬用點）
type Bid struct {
	Count int `json:"n"`
	Face  int `json:"face"`
}

// NewBid 建立喊價；數量或點數超出範圍時回傳無效喊價 {0,0}
func NewBid(count, face int) Bid {
	if count <= 0 || face < MinFace || face > MaxFace {
		return Bid{}
	}
	return Bid{Count: count, Face: face}
}

// Valid 是否為合法喊價
func (b Bid) Valid() bool {
	return b.Count > 0
}

// Score 回傳喊價分數；萬用點喊價為 count*20，其餘為 count*10+face
func (b Bid) Score() int {
	if b.Face == WildFace {
		return b.Count * 20
	}
	return b.Count*10 + b.Face
}

// Compare 依分數比較兩個喊價
func (b Bid) Compare(other Bid) int {
	return cmp.Compare(b.Score(), other.Score())
}

// Beats 是否嚴格大於另一個喊價
func (b Bid) Beats(other Bid) bool {
	return b.Compare(other) > 0
}

// Evaluate 以攤開的所有骰子檢驗喊價
//
//	< 0: 實際數量少於喊價
//	  0: 剛好
//	> 0: 實際數量多於喊價
func (b Bid) Evaluate(pool []int) int {
	actual := 0
	for _, d := range pool {
		if d == WildFace || d == b.Face {
			actual++
		}
	}
	return actual - b.Count
}

func (b Bid) String() string {
	if !b.Valid() {
		return "無喊價"
	}
	return fmt.Sprintf("%d 個 %d", b.Count, b.Face)
}

// Roller 提供擲骰的亂數來源，回傳 [1,6] 的點數
type Roller interface {
	Roll() int
}

// Hand 玩家手上的骰子
type Hand []int

// Player 表示一名玩家
type Player struct {
	Name string
	Hand Hand
}

// Roll 重新擲出手上每一顆骰子
func (p *Player) Roll(r Roller) {
	for i := range p.Hand {
		p.Hand[i] = r.Roll()
	}
}

// Remove 移除 k 顆骰子，超過持有數量時清空
func (p *Player) Remove(k int) {
	if k <= 0 {
		return
	}
	k = min(k, len(p.Hand))
	p.Hand = p.Hand[:len(p.Hand)-k]
}

// IsPlaying 手上仍有骰子即仍在場
func (p *Player) IsPlaying() bool {
	return len(p.Hand) > 0
}

// HandSize 回傳骰子數量
func (p *Player) HandSize() int {
	return len(p.Hand)
}

// Role 玩家在一次質疑中的角色
type Role int

const (
	RoleBystander Role = iota
	RoleBidder
	RoleChallenger
)

// Outcome 描述一名玩家在質疑後的結果；Adjustment 為需交出的骰子數（<= 0）
type Outcome struct {
	Adjustment int  `json:"adjustment"`
	Winner     bool `json:"winner"`
	Loser      bool `json:"loser"`
}

// resolveOutcome 依喊價誤差與角色計算結果
func resolveOutcome(offset int, role Role) Outcome {
	switch role {
	case RoleBidder:
		o := Outcome{Winner: offset >= 0, Loser: offset < 0}
		if offset < 0 {
			o.Adjustment = offset
		}
		return o
	case RoleChallenger:
		o := Outcome{Winner: offset < 0, Loser: offset >= 0}
		if offset >= 0 {
			o.Adjustment = -max(1, offset)
		}
		return o
	default:
		if offset == 0 {
			return Outcome{Adjustment: -1}
		}
		return Outcome{}
	}
}
