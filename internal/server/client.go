package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client 一位玩家的 WebSocket 連線
type Client struct {
	conn   *websocket.Conn
	engine *Engine
	player string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient 建立連線並向引擎登記
func NewClient(conn *websocket.Conn, engine *Engine, player string) *Client {
	c := &Client{
		conn:   conn,
		engine: engine,
		player: player,
		send:   make(chan []byte, sendBuffer),
	}
	engine.Subscribe(c)
	return c
}

func (c *Client) ReadPump() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("玩家 %s 連線讀取異常: %v", c.player, err)
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(newError(CodeBadRequest, http.StatusBadRequest, "訊息格式錯誤"))
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg ClientMessage) {
	var err error
	switch msg.Type {
	case "status":
		if _, seated := c.engine.GameOf(c.player); !seated {
			// 尚未入座的連線看到的是大廳
			c.sendMessage(ServerMessage{Type: "games", Payload: c.engine.Games()})
			break
		}
		status, serr := c.engine.Status(c.player)
		if serr != nil {
			err = serr
			break
		}
		c.sendMessage(ServerMessage{Type: "status", Payload: status})
	case "games":
		c.sendMessage(ServerMessage{Type: "games", Payload: c.engine.Games()})
	case "start_game":
		err = c.engine.StartGame(c.player)
	case "start_round":
		err = c.engine.StartRound(c.player)
	case "bid":
		var payload BidRequest
		if jerr := json.Unmarshal(msg.Payload, &payload); jerr != nil {
			err = newError(CodeBadRequest, http.StatusBadRequest, "喊價格式錯誤")
			break
		}
		err = c.engine.Bid(c.player, payload.Count, payload.Face)
	case "challenge":
		err = c.engine.Challenge(c.player)
	default:
		err = newError(CodeBadRequest, http.StatusBadRequest, "未知指令 %q", msg.Type)
	}
	if err != nil {
		c.sendError(err)
	}
}

func (c *Client) sendError(err error) {
	code, _ := errorCode(err)
	c.sendMessage(ServerMessage{Type: "error", Payload: ErrorPayload{Code: code, Message: err.Error()}})
}

// sendMessage 不阻塞地排入訊息；緩衝區已滿時關閉連線
func (c *Client) sendMessage(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		go c.close()
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	_ = c.conn.Close()
	c.engine.Unsubscribe(c)
}
