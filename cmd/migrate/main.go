package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go_4_interview_prep/internal/config"
	"go_4_interview_prep/internal/content"
	"go_4_interview_prep/internal/logging"
	"go_4_interview_prep/internal/repository"
)

// テーブル作成とトラック定義のチェックを行う運用コマンド
func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	checkContent := flag.Bool("check-content", false, "validate app.content_path after migrating")
	flag.Parse()

	if err := config.LoadConfig(*configDir); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := &config.Cfg
	logger := logging.New(os.Stderr, cfg.Log.Level)

	// --- 1. データベースへの接続 ---
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()
	fmt.Printf("Successfully connected to %s database\n", cfg.Database.Driver)

	// --- 2. AutoMigrate ---
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	fmt.Println("Migration completed: learning_records, subscriptions")

	// --- 3. トラック定義のチェック (任意) ---
	if *checkContent {
		catalog, err := content.Load(cfg.App.ContentPath)
		if err != nil {
			log.Fatalf("Invalid track content %s: %v", cfg.App.ContentPath, err)
		}
		for _, t := range catalog.List() {
			track, _ := catalog.Track(t.CompanyName)
			fmt.Printf("  %-24s %3d days %3d topics\n", t.CompanyName, t.TotalDays, len(track.Topics))
		}
	}
}
