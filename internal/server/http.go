package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"bluffdice/internal/server/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ctxKey struct{}

// API 對外的 HTTP 介面
type API struct {
	store      *store.Store
	engine     *Engine
	webDir     string
	sessionTTL time.Duration
}

// NewAPI 建立 HTTP 介面
func NewAPI(st *store.Store, engine *Engine, webDir string, sessionTTL time.Duration) *API {
	return &API{store: st, engine: engine, webDir: webDir, sessionTTL: sessionTTL}
}

// Routes 建立路由
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Get("/games", a.handleGames)

		r.Group(func(r chi.Router) {
			r.Use(a.requirePlayer)
			r.Post("/newGame", a.handleNewGame)
			r.Post("/join", a.handleJoin)
			r.Post("/addBot", a.handleAddBot)
			r.Post("/startGame", a.handleStartGame)
			r.Post("/startRound", a.handleStartRound)
			r.Post("/bid", a.handleBid)
			r.Post("/challenge", a.handleChallenge)
			r.Post("/status", a.handleStatus)
		})
	})

	r.With(a.requirePlayer).Get("/ws", a.handleWebSocket)

	static := http.FileServer(http.Dir(a.webDir))
	r.With(middleware.Compress(5)).Handle("/*", static)
	return r
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(CodeBadRequest, http.StatusBadRequest, "請提供帳號與密碼"))
		return
	}
	user, err := a.store.CreateUser(req.Username, req.Password)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrUserExists) {
			status = http.StatusConflict
		}
		writeError(w, &Error{Code: CodeBadRequest, Status: status, Err: err})
		return
	}
	a.startSession(w, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(CodeBadRequest, http.StatusBadRequest, "請提供帳號與密碼"))
		return
	}
	user, err := a.store.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, &Error{Code: CodeNoPlayer, Status: http.StatusUnauthorized, Err: err})
		return
	}
	a.startSession(w, user)
}

func (a *API) startSession(w http.ResponseWriter, user *store.User) {
	token, err := a.store.CreateSession(user.ID, a.sessionTTL)
	if err != nil {
		log.Printf("建立會話失敗: %v", err)
		writeError(w, newError(CodeInternal, http.StatusInternalServerError, "建立會話失敗"))
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Username: user.Username})
}

func (a *API) handleGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Games())
}

func (a *API) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	id, err := a.engine.CreateGame(playerFrom(r), req.Game)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Success: true, Game: id})
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Game) == "" {
		writeError(w, newError(CodeBadRequest, http.StatusBadRequest, "缺少牌局 ID"))
		return
	}
	writeResult(w, a.engine.JoinGame(playerFrom(r), req.Game))
}

func (a *API) handleAddBot(w http.ResponseWriter, r *http.Request) {
	var req BotRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	name, err := a.engine.AddBot(playerFrom(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Success: true, Name: name})
}

func (a *API) handleStartGame(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.engine.StartGame(playerFrom(r)))
}

func (a *API) handleStartRound(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.engine.StartRound(playerFrom(r)))
}

func (a *API) handleBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(CodeBadRequest, http.StatusBadRequest, "喊價格式錯誤"))
		return
	}
	writeResult(w, a.engine.Bid(playerFrom(r), req.Count, req.Face))
}

func (a *API) handleChallenge(w http.ResponseWriter, r *http.Request) {
	writeResult(w, a.engine.Challenge(playerFrom(r)))
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.engine.Status(playerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升級失敗: %v", err)
		return
	}
	client := NewClient(conn, a.engine, playerFrom(r))
	go client.WritePump()
	client.ReadPump()
}

// requirePlayer 驗證會話並把玩家名稱放入 context
func (a *API) requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("auth"))
		if token == "" {
			token = parseAuthHeader(r)
		}
		if token == "" {
			writeError(w, newError(CodeNoPlayer, http.StatusUnauthorized, "未登入"))
			return
		}
		user, err := a.store.UserBySession(token)
		if err != nil {
			writeError(w, &Error{Code: CodeNoPlayer, Status: http.StatusUnauthorized, Err: err})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, user.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerFrom(r *http.Request) string {
	name, _ := r.Context().Value(ctxKey{}).(string)
	return name
}

// decodeOptional 解析可省略的 JSON body
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, newError(CodeBadRequest, http.StatusBadRequest, "請求格式錯誤"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("回傳 JSON 失敗: %v", err)
	}
}

func writeResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Success: true})
}

func writeError(w http.ResponseWriter, err error) {
	code, status := errorCode(err)
	writeJSON(w, status, Result{Success: false, Error: code, Message: err.Error()})
}

func parseAuthHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if cookie, err := r.Cookie("session_token"); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
