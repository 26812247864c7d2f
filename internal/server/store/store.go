package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLen    = 24
	minPasswordLen    = 6
	defaultSessionTTL = 30 * 24 * time.Hour
)

var (
	// ErrUserExists 帳號已被註冊
	ErrUserExists = errors.New("帳號已存在")
	// ErrBadCredentials 帳號或密碼錯誤
	ErrBadCredentials = errors.New("帳號或密碼錯誤")
	// ErrSessionInvalid 會話不存在或已過期
	ErrSessionInvalid = errors.New("會話無效或已過期")
)

// Store 以 SQLite 保存帳號、會話與牌局
type Store struct {
	db *sql.DB
}

// User 已註冊的玩家帳號；Username 即牌局中的玩家名稱
type User struct {
	ID       int64
	Username string
	Created  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  created_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);
CREATE TABLE IF NOT EXISTS games (
  id TEXT PRIMARY KEY,
  data TEXT NOT NULL,
  updated_at DATETIME NOT NULL
);
`

// New 開啟（必要時建立）資料庫並初始化資料表
func New(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db 路徑不可為空")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("建立資料目錄失敗: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("開啟資料庫失敗: %w", err)
	}
	// SQLite 單一寫入者
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化資料表失敗: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateUser 註冊新帳號
func (s *Store) CreateUser(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, fmt.Errorf("帳號不可為空")
	case len(username) > maxUsernameLen:
		return nil, fmt.Errorf("帳號長度不可超過 %d", maxUsernameLen)
	case len(password) < minPasswordLen:
		return nil, fmt.Errorf("密碼長度至少 %d 碼", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("加密密碼失敗: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(`INSERT INTO users(username, password_hash, created_at) VALUES(?, ?, ?)`, username, string(hash), now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("建立使用者失敗: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("取得使用者 ID 失敗: %w", err)
	}
	return &User{ID: id, Username: username, Created: now}, nil
}

// Authenticate 驗證帳號密碼
func (s *Store) Authenticate(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrBadCredentials
	}

	var (
		user User
		hash string
	)
	err := s.db.QueryRow(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&user.ID, &user.Username, &hash, &user.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("查詢使用者失敗: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// CreateSession 建立登入會話，ttl <= 0 時預設 30 天
func (s *Store) CreateSession(userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	if _, err := s.db.Exec(`INSERT INTO sessions(token, user_id, created_at, expires_at) VALUES(?, ?, ?, ?)`, token, userID, now, now.Add(ttl)); err != nil {
		return "", fmt.Errorf("建立會話失敗: %w", err)
	}
	return token, nil
}

// UserBySession 由會話 token 找出使用者
func (s *Store) UserBySession(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionInvalid
	}

	var user User
	err := s.db.QueryRow(`SELECT u.id, u.username, u.created_at FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ? AND s.expires_at > ?`, token, time.Now().UTC()).
		Scan(&user.ID, &user.Username, &user.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("查詢會話失敗: %w", err)
	}
	return &user, nil
}

// CleanupExpiredSessions 清除過期會話，回傳刪除筆數
func (s *Store) CleanupExpiredSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("清理過期會話失敗: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SaveGame 寫入（或覆寫）一桌牌局的保存資料
func (s *Store) SaveGame(id string, data []byte) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("牌局 ID 不可為空")
	}
	_, err := s.db.Exec(`INSERT INTO games(id, data, updated_at) VALUES(?, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`, id, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("保存牌局 %s 失敗: %w", id, err)
	}
	return nil
}

// LoadGames 讀出所有牌局的保存資料，以牌局 ID 為鍵
func (s *Store) LoadGames() (map[string][]byte, error) {
	rows, err := s.db.Query(`SELECT id, data FROM games`)
	if err != nil {
		return nil, fmt.Errorf("讀取牌局失敗: %w", err)
	}
	defer rows.Close()

	games := make(map[string][]byte)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("讀取牌局資料失敗: %w", err)
		}
		games[id] = []byte(data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("讀取牌局失敗: %w", err)
	}
	return games, nil
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成亂數 token 失敗: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
