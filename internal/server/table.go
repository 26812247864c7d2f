package server

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"bluffdice/internal/game"
)

// Table 包裝單一牌局；所有操作都在 mu 之下依序執行
type Table struct {
	mu     sync.Mutex
	engine *Engine
	game   *game.Game
	bots   map[string]*BotPlayer

	botTimer *time.Timer

	// wmu 只保護 watchers；持有 wmu 時只可再取 Client 的鎖
	wmu      sync.Mutex
	watchers map[*Client]struct{}
}

// tableRecord 一桌牌局的保存格式
type tableRecord struct {
	Game game.Record `json:"game"`
	Bots []string    `json:"bots,omitempty"`
}

func newTable(e *Engine, g *game.Game) *Table {
	return &Table{
		engine:   e,
		game:     g,
		bots:     make(map[string]*BotPlayer),
		watchers: make(map[*Client]struct{}),
	}
}

func (t *Table) addWatcher(c *Client) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	t.watchers[c] = struct{}{}
}

func (t *Table) removeWatcher(c *Client) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	delete(t.watchers, c)
}

// changedLocked 牌局變動後保存、推播狀態並排程機器人
func (t *Table) changedLocked() {
	if err := t.saveLocked(); err != nil {
		log.Printf("保存牌局 %s 失敗: %v", t.game.ID, err)
	}
	t.broadcastStatusLocked()
	t.scheduleBotLocked()
}

func (t *Table) saveLocked() error {
	if t.engine == nil || t.engine.store == nil {
		return nil
	}
	rec := tableRecord{Game: t.game.Record()}
	for name := range t.bots {
		rec.Bots = append(rec.Bots, name)
	}
	sort.Strings(rec.Bots)
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return t.engine.store.SaveGame(t.game.ID, data)
}

// broadcastStatusLocked 依每位觀看者的視角推送狀態
func (t *Table) broadcastStatusLocked() {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	for c := range t.watchers {
		c.sendMessage(ServerMessage{Type: "status", Payload: t.game.Status(c.player)})
	}
}

func (t *Table) isBot(name string) bool {
	_, ok := t.bots[name]
	return ok
}
