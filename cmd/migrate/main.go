// Package main 商品目录 MySQL 库的迁移工具，基于 golang-migrate。
// Mongo 后端无需迁移，索引在服务启动时创建。
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/config"
	"github.com/MorseWayne/players_club/internal/database"
	"github.com/MorseWayne/players_club/internal/logger"
)

const usage = `Usage: migrate -action=[up|down|version|force] [options]

  -action string   up, down, version, force (default "up")
  -steps int       steps for down (default 1)
  -target uint     target version for version / force

Examples:
  migrate -action=up
  migrate -action=down -steps=1
  migrate -action=version -target=1
  migrate -action=force -target=0
`

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, force")
		steps  = flag.Int("steps", 1, "Number of steps for down migration")
		target = flag.Uint("target", 0, "Target version for version or force migration")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.Database.Driver != "mysql" {
		lg.Fatal("migrations only apply to the mysql catalog store", zap.String("driver", cfg.Database.Driver))
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := run(db, cfg.Migrations.Dir, *action, *steps, *target); err != nil {
		lg.Fatal("migration failed", zap.String("action", *action), zap.Error(err))
	}
	lg.Info("migration completed", zap.String("action", *action))
}

func run(db *database.DB, dir, action string, steps int, target uint) error {
	switch action {
	case "up":
		return db.RunMigrations(dir)
	case "down":
		return db.MigrateDown(dir, steps)
	case "version":
		if target == 0 {
			return fmt.Errorf("target version must be specified")
		}
		return db.MigrateToVersion(dir, target)
	case "force":
		// 版本 0 表示回到无迁移状态，用于清除 dirty 标记
		return db.ForceMigrationVersion(dir, target)
	default:
		flag.Usage()
		os.Exit(2)
		return nil
	}
}
