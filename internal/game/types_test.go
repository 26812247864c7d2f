package game

import (
	"math/rand"
	"testing"
)

func TestNewBidNormalizesInvalidInput(t *testing.T) {
	cases := []struct{ count, face int }{
		{0, 3}, {-1, 3}, {2, 0}, {2, 7}, {-5, -5}, {0, 0},
	}
	for _, c := range cases {
		if b := NewBid(c.count, c.face); b != (Bid{}) {
			t.Fatalf("NewBid(%d,%d) 應為無效喊價，實際 %+v", c.count, c.face, b)
		}
	}
	if b := NewBid(3, 6); b != (Bid{Count: 3, Face: 6}) || !b.Valid() {
		t.Fatalf("NewBid(3,6) 應保持原值，實際 %+v", b)
	}
}

func TestBidScore(t *testing.T) {
	if s := NewBid(3, 2).Score(); s != 32 {
		t.Fatalf("3 個 2 分數應為 32，實際 %d", s)
	}
	if s := NewBid(2, WildFace).Score(); s != 40 {
		t.Fatalf("2 個 6 分數應為 40，實際 %d", s)
	}
	if !NewBid(2, WildFace).Beats(NewBid(3, 2)) {
		t.Fatalf("2 個 6 應大於 3 個 2")
	}
	if !NewBid(1, 1).Beats(Bid{}) {
		t.Fatalf("任何合法喊價都應大於無效喊價")
	}
}

func TestWildBidOutranksSameCount(t *testing.T) {
	for count := 1; count <= 30; count++ {
		wild := NewBid(count, WildFace)
		for face := MinFace; face < WildFace; face++ {
			if !wild.Beats(NewBid(count, face)) {
				t.Fatalf("%v 應大於 %v", wild, NewBid(count, face))
			}
		}
		for face := MinFace; face <= MaxFace; face++ {
			if !NewBid(count+1, face).Beats(NewBid(count, face)) {
				t.Fatalf("同點數時數量多者應較大: %d 個 %d", count+1, face)
			}
		}
	}
}

func TestBidEqualityIsStructural(t *testing.T) {
	a, b := NewBid(2, 3), NewBid(2, 3)
	if a != b {
		t.Fatalf("相同數量與點數應相等")
	}
	if a.Compare(b) != 0 || a.Beats(b) {
		t.Fatalf("相同喊價不應互相大於")
	}
	if NewBid(2, 3) == NewBid(3, 2) {
		t.Fatalf("不同喊價不應相等")
	}
}

func TestBidString(t *testing.T) {
	if s := NewBid(3, 6).String(); s != "3 個 6" {
		t.Fatalf("喊價文字不符: %q", s)
	}
	if s := NewBid(0, 6).String(); s != "無喊價" {
		t.Fatalf("無效喊價文字不符: %q", s)
	}
}

func TestBidEvaluate(t *testing.T) {
	pool := []int{1, 3, 3, 6, 2, 6, 5, 3}
	bid := NewBid(4, 3)
	// 3 顆 3 + 2 顆萬用 = 5
	if got := bid.Evaluate(pool); got != 1 {
		t.Fatalf("預期 1，實際 %d", got)
	}
	if got := NewBid(6, 6).Evaluate(pool); got != -4 {
		t.Fatalf("喊 6 個 6 時只算萬用點，預期 -4，實際 %d", got)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]int(nil), pool...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if bid.Evaluate(shuffled) != bid.Evaluate(pool) {
			t.Fatalf("Evaluate 結果不應受骰子順序影響")
		}
	}
}

func TestPlayerRemove(t *testing.T) {
	p := &Player{Name: "a", Hand: Hand{1, 2, 3, 4, 5}}
	p.Remove(2)
	if p.HandSize() != 3 {
		t.Fatalf("移除 2 顆後應剩 3 顆，實際 %d", p.HandSize())
	}
	p.Remove(0)
	if p.HandSize() != 3 {
		t.Fatalf("移除 0 顆不應改變手牌")
	}
	p.Remove(10)
	if p.IsPlaying() {
		t.Fatalf("移除超過持有數量應清空手牌")
	}
}

func TestPlayerRollUsesRoller(t *testing.T) {
	p := &Player{Name: "a", Hand: make(Hand, 3)}
	p.Roll(&seqRoller{values: []int{4, 5, 6}})
	if p.Hand[0] != 4 || p.Hand[1] != 5 || p.Hand[2] != 6 {
		t.Fatalf("擲骰結果應來自注入的亂數來源，實際 %v", p.Hand)
	}
}

func TestRandRollerRange(t *testing.T) {
	r := NewRandRoller(42)
	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		v := r.Roll()
		if v < MinFace || v > MaxFace {
			t.Fatalf("點數超出範圍: %d", v)
		}
		seen[v] = true
	}
	if len(seen) != MaxFace {
		t.Fatalf("600 次擲骰應出現所有點數，實際 %v", seen)
	}
}

func TestResolveOutcome(t *testing.T) {
	cases := []struct {
		name   string
		offset int
		role   Role
		want   Outcome
	}{
		{"喊價過高-喊價者", -2, RoleBidder, Outcome{Adjustment: -2, Loser: true}},
		{"喊價過高-質疑者", -2, RoleChallenger, Outcome{Winner: true}},
		{"喊價過高-旁觀者", -2, RoleBystander, Outcome{}},
		{"剛好-喊價者", 0, RoleBidder, Outcome{Winner: true}},
		{"剛好-質疑者", 0, RoleChallenger, Outcome{Adjustment: -1, Loser: true}},
		{"剛好-旁觀者", 0, RoleBystander, Outcome{Adjustment: -1}},
		{"喊價保守-喊價者", 3, RoleBidder, Outcome{Winner: true}},
		{"喊價保守-質疑者", 3, RoleChallenger, Outcome{Adjustment: -3, Loser: true}},
		{"喊價保守-旁觀者", 3, RoleBystander, Outcome{}},
	}
	for _, c := range cases {
		if got := resolveOutcome(c.offset, c.role); got != c.want {
			t.Fatalf("%s: 預期 %+v，實際 %+v", c.name, c.want, got)
		}
	}
}
