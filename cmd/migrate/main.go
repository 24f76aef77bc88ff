// migrate applies goose SQL migrations from db/migrations. Run it once per
// deploy before starting daybookd or the workers.
//
// Usage: migrate [up|down|status|version] (default up)
package main

import (
	"database/sql"
	"flag"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "db/migrations", "directory holding the SQL migrations")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := godotenv.Load(); err != nil {
		sugar.Info("no .env file found, reading environment directly")
	}

	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		sugar.Fatal("DB_URL env var is required")
	}

	command := "up"
	var rest []string
	if args := flag.Args(); len(args) > 0 {
		command = args[0]
		rest = args[1:]
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		sugar.Fatalw("failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		sugar.Fatalw("database unreachable", "error", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		sugar.Fatalw("failed to set goose dialect", "error", err)
	}

	sugar.Infow("running migrations", "command", command, "dir", *dir)
	if err := goose.Run(command, db, *dir, rest...); err != nil {
		sugar.Fatalw("migration failed", "command", command, "error", err)
	}
	sugar.Infow("migrations done", "command", command)
}
