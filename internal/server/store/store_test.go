package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("建立資料庫失敗: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserRegistrationAndLogin(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser("  joe ", "secret1")
	if err != nil {
		t.Fatalf("註冊失敗: %v", err)
	}
	if user.Username != "joe" {
		t.Fatalf("帳號應去除空白，實際 %q", user.Username)
	}
	if _, err := s.CreateUser("joe", "secret2"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("重複註冊應失敗，實際 %v", err)
	}
	if _, err := s.CreateUser("mary", "123"); err == nil {
		t.Fatalf("過短的密碼應被拒絕")
	}

	if _, err := s.Authenticate("joe", "wrong-pass"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("錯誤密碼應失敗，實際 %v", err)
	}
	got, err := s.Authenticate("joe", "secret1")
	if err != nil {
		t.Fatalf("登入失敗: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("登入的使用者 ID 不符")
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	user, _ := s.CreateUser("ken", "password")

	token, err := s.CreateSession(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("建立會話失敗: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token 長度應為 64，實際 %d", len(token))
	}
	got, err := s.UserBySession(token)
	if err != nil || got.Username != "ken" {
		t.Fatalf("以會話查詢使用者失敗: %v", err)
	}
	if _, err := s.UserBySession("nope"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("未知的 token 應失敗，實際 %v", err)
	}

	expired, _ := s.CreateSession(user.ID, time.Nanosecond)
	time.Sleep(10 * time.Millisecond)
	if _, err := s.UserBySession(expired); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("過期會話應失敗，實際 %v", err)
	}
	n, err := s.CleanupExpiredSessions()
	if err != nil || n != 1 {
		t.Fatalf("應清除 1 筆過期會話，實際 %d (%v)", n, err)
	}
}

func TestSaveAndLoadGames(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveGame("final", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("保存失敗: %v", err)
	}
	if err := s.SaveGame("final", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("覆寫失敗: %v", err)
	}
	if err := s.SaveGame("other", []byte(`{}`)); err != nil {
		t.Fatalf("保存失敗: %v", err)
	}
	if err := s.SaveGame(" ", []byte(`{}`)); err == nil {
		t.Fatalf("空白 ID 應被拒絕")
	}

	games, err := s.LoadGames()
	if err != nil {
		t.Fatalf("讀取失敗: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("應有 2 桌牌局，實際 %d", len(games))
	}
	if string(games["final"]) != `{"v":2}` {
		t.Fatalf("應讀到最新資料，實際 %s", games["final"])
	}
}
