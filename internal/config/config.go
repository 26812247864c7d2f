// Package config 讀取伺服器設定：先套用環境變數，再由命令列參數覆寫。
package config

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 伺服器設定
type Config struct {
	Addr    string `env:"BLUFFDICE_ADDR" envDefault:":8000"`
	WebDir  string `env:"BLUFFDICE_WEB_DIR" envDefault:"web"`
	DataDir string `env:"BLUFFDICE_DATA_DIR" envDefault:"data"`

	SessionTTL     time.Duration `env:"BLUFFDICE_SESSION_TTL" envDefault:"720h"`
	SessionCleanup time.Duration `env:"BLUFFDICE_SESSION_CLEANUP" envDefault:"1h"`
	BotDelay       time.Duration `env:"BLUFFDICE_BOT_DELAY" envDefault:"1200ms"`
}

// Load 解析環境變數與命令列參數
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("解析環境變數失敗: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP 服務監聽位址")
	fs.StringVar(&cfg.WebDir, "web", cfg.WebDir, "前端靜態資源目錄")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "資料存放目錄")
	fs.DurationVar(&cfg.BotDelay, "bot-delay", cfg.BotDelay, "機器人行動前的等待時間")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.BotDelay < 0 {
		return Config{}, fmt.Errorf("bot-delay 不可為負數")
	}
	return cfg, nil
}

// DBPath 資料庫檔案位置
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "bluffdice.db")
}
