package config

import (
	"flag"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("讀取設定失敗: %v", err)
	}
	if cfg.Addr != ":8000" || cfg.WebDir != "web" || cfg.DataDir != "data" {
		t.Fatalf("預設值不符: %+v", cfg)
	}
	if cfg.SessionTTL != 720*time.Hour || cfg.BotDelay != 1200*time.Millisecond {
		t.Fatalf("預設時間設定不符: %+v", cfg)
	}
	if cfg.DBPath() != filepath.Join("data", "bluffdice.db") {
		t.Fatalf("資料庫路徑不符: %s", cfg.DBPath())
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BLUFFDICE_ADDR", ":9000")
	t.Setenv("BLUFFDICE_DATA_DIR", "/tmp/env-data")
	t.Setenv("BLUFFDICE_BOT_DELAY", "2s")

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-addr", ":9100"})
	if err != nil {
		t.Fatalf("讀取設定失敗: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("命令列參數應覆寫環境變數，實際 %s", cfg.Addr)
	}
	if cfg.DataDir != "/tmp/env-data" {
		t.Fatalf("應使用環境變數，實際 %s", cfg.DataDir)
	}
	if cfg.BotDelay != 2*time.Second {
		t.Fatalf("應使用環境變數的 bot delay，實際 %v", cfg.BotDelay)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BLUFFDICE_SESSION_TTL", "not-a-duration")
	if _, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil); err == nil {
		t.Fatalf("錯誤的時間格式應失敗")
	}
}
