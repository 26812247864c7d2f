package server

import "encoding/json"

// ClientMessage WebSocket 客戶端送出的訊息
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage 伺服器推送的訊息
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTP 請求
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type GameRequest struct {
	Game string `json:"game"`
}

type BotRequest struct {
	Name string `json:"name"`
}

type BidRequest struct {
	Count int `json:"n"`
	Face  int `json:"face"`
}

// HTTP 回應
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type Result struct {
	Success bool   `json:"success"`
	Game    string `json:"game,omitempty"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
