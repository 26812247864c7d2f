package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bluffdice/internal/config"
	"bluffdice/internal/server"
	serverstore "bluffdice/internal/server/store"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("讀取設定失敗: %v", err)
	}

	store, err := serverstore.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("初始化資料庫失敗: %v", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Printf("關閉資料庫時發生錯誤: %v", cerr)
		}
	}()

	engine, err := server.NewEngine(store, server.EngineOptions{BotDelay: cfg.BotDelay})
	if err != nil {
		log.Fatalf("還原牌局失敗: %v", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cleanupSessions(ctx, store, cfg.SessionCleanup)

	api := server.NewAPI(store, engine, cfg.WebDir, cfg.SessionTTL)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("關閉 HTTP 服務失敗: %v", err)
		}
	}()

	log.Printf("《吹牛骰》伺服器啟動於 %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP 服務啟動失敗: %v", err)
	}

	if err := engine.Save(); err != nil {
		log.Printf("保存牌局失敗: %v", err)
	}
	log.Printf("伺服器已關閉")
}

func cleanupSessions(ctx context.Context, store *serverstore.Store, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupExpiredSessions()
			if err != nil {
				log.Printf("%v", err)
				continue
			}
			if n > 0 {
				log.Printf("已清除 %d 筆過期會話", n)
			}
		}
	}
}
