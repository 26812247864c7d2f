package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"bluffdice/internal/game"
)

// GameStore 牌局的保存位置
type GameStore interface {
	SaveGame(id string, data []byte) error
	LoadGames() (map[string][]byte, error)
}

// EngineOptions 引擎選項
type EngineOptions struct {
	// BotDelay 機器人行動前的等待時間
	BotDelay time.Duration
	// NewRoller 為每桌牌局建立擲骰器；nil 時使用 game.RandRoller
	NewRoller func() game.Roller
}

// Engine 管理所有牌局，並記錄每位玩家所在的牌局
type Engine struct {
	mu     sync.Mutex
	store  GameStore
	tables map[string]*Table
	seats  map[string]string
	conns  map[string]map[*Client]struct{}

	botDelay  time.Duration
	newRoller func() game.Roller
	rng       *rand.Rand

	closed atomic.Bool
}

// NewEngine 建立引擎並還原已保存的牌局
func NewEngine(store GameStore, opts EngineOptions) (*Engine, error) {
	e := &Engine{
		store:     store,
		tables:    make(map[string]*Table),
		seats:     make(map[string]string),
		conns:     make(map[string]map[*Client]struct{}),
		botDelay:  opts.BotDelay,
		newRoller: opts.NewRoller,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) rollerLocked() game.Roller {
	if e.newRoller != nil {
		return e.newRoller()
	}
	return game.NewRandRoller(e.rng.Int63())
}

func (e *Engine) load() error {
	if e.store == nil {
		return nil
	}
	saved, err := e.store.LoadGames()
	if err != nil {
		return err
	}
	for id, data := range saved {
		var rec tableRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("解析牌局 %s 失敗: %w", id, err)
		}
		g, err := game.Restore(rec.Game, e.rollerLocked())
		if err != nil {
			return err
		}
		t := newTable(e, g)
		for _, name := range rec.Bots {
			t.bots[name] = &BotPlayer{Name: name}
		}
		e.tables[g.ID] = t
		for _, name := range g.PlayerNames() {
			if _, isBot := t.bots[name]; !isBot {
				e.seats[name] = g.ID
			}
		}
	}
	for _, t := range e.tables {
		t.mu.Lock()
		t.scheduleBotLocked()
		t.mu.Unlock()
	}
	log.Printf("已還原 %d 桌牌局", len(e.tables))
	return nil
}

// Close 停止所有排程中的機器人
func (e *Engine) Close() {
	e.closed.Store(true)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.tables {
		t.mu.Lock()
		t.stopBotLocked()
		t.mu.Unlock()
	}
}

// CreateGame 建立新牌局並讓建立者入座；gameID 為空時自動產生
func (e *Engine) CreateGame(player, gameID string) (string, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		gameID = uuid.NewString()
	}

	e.mu.Lock()
	if existing, ok := e.seats[player]; ok {
		e.mu.Unlock()
		return "", newError(CodeAlreadyJoined, http.StatusConflict, "已在牌局 %s 中", existing)
	}
	if _, ok := e.tables[gameID]; ok {
		e.mu.Unlock()
		return "", newError(CodeGameExists, http.StatusConflict, "牌局 %s 已存在", gameID)
	}
	g := game.NewGame(gameID, e.rollerLocked())
	if err := g.AddPlayer(player); err != nil {
		e.mu.Unlock()
		return "", ruleError(err)
	}
	t := newTable(e, g)
	e.tables[gameID] = t
	e.seats[player] = gameID
	e.attachLocked(player, t)
	e.mu.Unlock()

	t.mu.Lock()
	t.changedLocked()
	t.mu.Unlock()
	e.broadcastLobby()
	log.Printf("玩家 %s 建立牌局 %s", player, gameID)
	return gameID, nil
}

// JoinGame 加入既有牌局
func (e *Engine) JoinGame(player, gameID string) error {
	e.mu.Lock()
	if existing, ok := e.seats[player]; ok {
		e.mu.Unlock()
		return newError(CodeAlreadyJoined, http.StatusConflict, "已在牌局 %s 中", existing)
	}
	t, ok := e.tables[gameID]
	if !ok {
		e.mu.Unlock()
		return newError(CodeNoGame, http.StatusNotFound, "牌局 %s 不存在", gameID)
	}
	t.mu.Lock()
	if err := t.game.AddPlayer(player); err != nil {
		t.mu.Unlock()
		e.mu.Unlock()
		return ruleError(err)
	}
	e.seats[player] = gameID
	e.attachLocked(player, t)
	t.changedLocked()
	t.mu.Unlock()
	e.mu.Unlock()

	e.broadcastLobby()
	return nil
}

// AddBot 由已入座的玩家在牌局中加入機器人
func (e *Engine) AddBot(player, name string) (string, error) {
	t, err := e.tableOf(player)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("機器人%d", len(t.bots)+1)
	}
	if err := t.game.AddPlayer(name); err != nil {
		t.mu.Unlock()
		return "", ruleError(err)
	}
	t.bots[name] = &BotPlayer{Name: name}
	t.changedLocked()
	t.mu.Unlock()

	e.broadcastLobby()
	return name, nil
}

// StartGame 開局或再來一局
func (e *Engine) StartGame(player string) error {
	return e.apply(player, func(g *game.Game) error {
		return g.StartGame()
	})
}

// StartRound 開始下一輪
func (e *Engine) StartRound(player string) error {
	return e.apply(player, func(g *game.Game) error {
		if err := g.StartRound(); err != nil {
			return err
		}
		log.Printf("牌局 %s 開始新回合，%d 位玩家仍在場", g.ID, g.ActivePlayers())
		return nil
	})
}

// Bid 喊價
func (e *Engine) Bid(player string, count, face int) error {
	return e.apply(player, func(g *game.Game) error {
		return g.PlaceBid(player, count, face)
	})
}

// Challenge 質疑目前喊價
func (e *Engine) Challenge(player string) error {
	return e.apply(player, func(g *game.Game) error {
		return g.Challenge(player)
	})
}

// Status 回傳玩家視角的牌局狀態
func (e *Engine) Status(player string) (game.Status, error) {
	t, err := e.tableOf(player)
	if err != nil {
		return game.Status{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game.Status(player), nil
}

// GameOf 回傳玩家所在的牌局 ID
func (e *Engine) GameOf(player string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.seats[player]
	return id, ok
}

// Games 列出所有牌局及其玩家
func (e *Engine) Games() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gamesLocked()
}

func (e *Engine) gamesLocked() map[string][]string {
	games := make(map[string][]string, len(e.tables))
	for id, t := range e.tables {
		t.mu.Lock()
		games[id] = t.game.PlayerNames()
		t.mu.Unlock()
	}
	return games
}

// Save 保存所有牌局
func (e *Engine) Save() error {
	e.mu.Lock()
	ids := make([]string, 0, len(e.tables))
	for id := range e.tables {
		ids = append(ids, id)
	}
	tables := make([]*Table, 0, len(ids))
	sort.Strings(ids)
	for _, id := range ids {
		tables = append(tables, e.tables[id])
	}
	e.mu.Unlock()

	for _, t := range tables {
		t.mu.Lock()
		err := t.saveLocked()
		t.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) tableOf(player string) (*Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.seats[player]
	if !ok {
		return nil, newError(CodeNotJoined, http.StatusNotFound, "玩家 %s 尚未加入牌局", player)
	}
	return e.tables[id], nil
}

// apply 在牌局鎖內執行一次操作，成功後保存、推播並排程機器人
func (e *Engine) apply(player string, op func(g *game.Game) error) error {
	t, err := e.tableOf(player)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := op(t.game); err != nil {
		return ruleError(err)
	}
	t.changedLocked()
	return nil
}

// Subscribe 登記 WebSocket 連線；已入座的玩家會收到牌局狀態，其餘收到牌局列表
func (e *Engine) Subscribe(c *Client) {
	e.mu.Lock()
	if e.conns[c.player] == nil {
		e.conns[c.player] = make(map[*Client]struct{})
	}
	e.conns[c.player][c] = struct{}{}
	id, seated := e.seats[c.player]
	var t *Table
	if seated {
		t = e.tables[id]
		t.addWatcher(c)
	}
	games := e.gamesLocked()
	e.mu.Unlock()

	if t != nil {
		t.mu.Lock()
		c.sendMessage(ServerMessage{Type: "status", Payload: t.game.Status(c.player)})
		t.mu.Unlock()
		return
	}
	c.sendMessage(ServerMessage{Type: "games", Payload: games})
}

// Unsubscribe 移除連線
func (e *Engine) Unsubscribe(c *Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if set, ok := e.conns[c.player]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(e.conns, c.player)
		}
	}
	if id, ok := e.seats[c.player]; ok {
		e.tables[id].removeWatcher(c)
	}
}

func (e *Engine) attachLocked(player string, t *Table) {
	for c := range e.conns[player] {
		t.addWatcher(c)
	}
}

// broadcastLobby 將牌局列表推送給尚未入座的連線
func (e *Engine) broadcastLobby() {
	e.mu.Lock()
	defer e.mu.Unlock()
	msg := ServerMessage{Type: "games", Payload: e.gamesLocked()}
	for player, set := range e.conns {
		if _, seated := e.seats[player]; seated {
			continue
		}
		for c := range set {
			c.sendMessage(msg)
		}
	}
}
