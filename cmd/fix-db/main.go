// Команда fix-db снимает dirty-состояние golang-migrate, принудительно выставляя версию схемы.
//
//	fix-db --version 1
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/yourusername/contest-rank-api/internal/config"
)

func main() {
	version := flag.Int("version", -1, "версия, до которой миграции считаются примененными")
	configPath := flag.String("config", configPathFromEnv(), "путь к файлу конфигурации")
	flag.Parse()

	if *version < 0 {
		log.Fatal("--version is required (the last migration that was applied cleanly)")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.Database.MigrationsPath, "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	current, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Fatalf("Failed to read current version: %v", err)
	}
	fmt.Printf("Current version: %d (dirty=%t). Forcing version %d...\n", current, dirty, *version)

	if err := m.Force(*version); err != nil {
		log.Fatalf("Failed to force version: %v", err)
	}

	fmt.Println("Success! Dirty state cleaned. You can now run the app normally.")
}

func configPathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}
